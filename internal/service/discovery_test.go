package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebastianleon1-sys/Zerby2/internal/model"
)

func TestDiscovery_NearestRanksByDistance(t *testing.T) {
	w := newWorld()
	svc := NewDiscoveryService(fakeUsuarios{w}, fakeProveedores{w})

	// Santiago centro.
	u := w.addUsuario("Ana", f64(-33.4489), f64(-70.6693))

	far := w.addProveedor("Lejos", "Pintor", f64(-33.0472), f64(-71.6127)) // Valparaíso
	near := w.addProveedor("Cerca", "Gasfiter", f64(-33.4372), f64(-70.6506))
	w.addProveedor("Sin ubicacion", "Carpintero", nil, nil)

	got, err := svc.Nearest(context.Background(), usuarioP(u.ID))
	require.NoError(t, err)
	require.Len(t, got, 2, "providers without coordinates are left out")

	assert.Equal(t, near.ID, got[0].ProveedorID)
	assert.Equal(t, far.ID, got[1].ProveedorID)
	require.NotNil(t, got[0].DistanciaKm)
	assert.InDelta(t, 2.2, *got[0].DistanciaKm, 0.3)
	assert.InDelta(t, 98, *got[1].DistanciaKm, 5)
}

func TestDiscovery_NearestCapsResults(t *testing.T) {
	w := newWorld()
	svc := NewDiscoveryService(fakeUsuarios{w}, fakeProveedores{w})
	u := w.addUsuario("Ana", f64(0), f64(0))
	for i := 0; i < NearestLimit+5; i++ {
		w.addProveedor("P", "Oficio", f64(float64(i)/100), f64(0))
	}

	got, err := svc.Nearest(context.Background(), usuarioP(u.ID))
	require.NoError(t, err)
	assert.Len(t, got, NearestLimit)
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, *got[i-1].DistanciaKm, *got[i].DistanciaKm)
	}
}

func TestDiscovery_NearestWithoutUsuarioLocation(t *testing.T) {
	w := newWorld()
	svc := NewDiscoveryService(fakeUsuarios{w}, fakeProveedores{w})
	u := w.addUsuario("Ana", nil, nil)
	for i := 0; i < UnlocatedLimit+3; i++ {
		w.addProveedor("P", "Oficio", nil, nil)
	}

	got, err := svc.Nearest(context.Background(), usuarioP(u.ID))
	require.NoError(t, err)
	assert.Len(t, got, UnlocatedLimit)
	for _, l := range got {
		assert.Nil(t, l.DistanciaKm)
	}
}

func TestDiscovery_RequiresUsuario(t *testing.T) {
	w := newWorld()
	svc := NewDiscoveryService(fakeUsuarios{w}, fakeProveedores{w})

	_, err := svc.Nearest(context.Background(), proveedorP(1))
	assert.Equal(t, http.StatusUnauthorized, httpStatus(err))

	_, err = svc.Search(context.Background(), proveedorP(1), "x")
	assert.Equal(t, http.StatusUnauthorized, httpStatus(err))
}

func TestDiscovery_Search(t *testing.T) {
	w := newWorld()
	svc := NewDiscoveryService(fakeUsuarios{w}, fakeProveedores{w})
	u := w.addUsuario("Ana", nil, nil)
	elec := w.addProveedor("Beto", "Electricista", nil, nil)
	w.addProveedor("Carla", "Pintora", nil, nil)
	w.calificaciones = append(w.calificaciones,
		model.Calificacion{ProveedorID: elec.ID, UsuarioID: u.ID, Puntuacion: 4},
		model.Calificacion{ProveedorID: elec.ID, UsuarioID: u.ID + 1, Puntuacion: 5},
	)

	got, err := svc.Search(context.Background(), usuarioP(u.ID), "  electric ")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Beto", got[0].Nombre)
	assert.InDelta(t, 4.5, got[0].CalifPromedio, 1e-9)
	assert.Equal(t, 2, got[0].CalifTotal)

	got, err = svc.Search(context.Background(), usuarioP(u.ID), "fontanero")
	require.NoError(t, err)
	assert.Empty(t, got)
}
