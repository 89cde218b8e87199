package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/sebastianleon1-sys/Zerby2/internal/errs"
	"github.com/sebastianleon1-sys/Zerby2/internal/lib/email"
	"github.com/sebastianleon1-sys/Zerby2/internal/lib/geo"
	"github.com/sebastianleon1-sys/Zerby2/internal/lib/storage"
	"github.com/sebastianleon1-sys/Zerby2/internal/model"
	"github.com/sebastianleon1-sys/Zerby2/internal/repository"
	"github.com/sebastianleon1-sys/Zerby2/internal/sqlerr"
)

// world is an in-memory backing for every store interface the services
// use. Each fake type below is a view onto it.
type world struct {
	mu sync.Mutex

	clock time.Time

	usuarios       map[int64]*model.Usuario
	proveedores    map[int64]*model.Proveedor
	conversaciones map[int64]*model.Conversacion
	mensajes       []model.Mensaje
	solicitudes    map[int64]*model.SolicitudServicio
	calificaciones []model.Calificacion
	portafolio     map[int64]*model.PortafolioItem

	nextID int64
}

func newWorld() *world {
	return &world{
		clock:          time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC),
		usuarios:       map[int64]*model.Usuario{},
		proveedores:    map[int64]*model.Proveedor{},
		conversaciones: map[int64]*model.Conversacion{},
		solicitudes:    map[int64]*model.SolicitudServicio{},
		portafolio:     map[int64]*model.PortafolioItem{},
	}
}

// tick advances the fake clock so rows get distinct, ordered timestamps.
func (w *world) tick() time.Time {
	w.clock = w.clock.Add(time.Minute)
	return w.clock
}

func (w *world) id() int64 {
	w.nextID++
	return w.nextID
}

func notFound(entity string) error { return &sqlerr.NotFound{Entity: entity} }

func (w *world) addUsuario(nombre string, lat, lon *float64) *model.Usuario {
	w.mu.Lock()
	defer w.mu.Unlock()
	u := &model.Usuario{ID: w.id(), NombreCompleto: nombre, Email: strings.ToLower(nombre) + "@example.com", Lat: lat, Lon: lon, Creado: w.tick()}
	w.usuarios[u.ID] = u
	return u
}

func (w *world) addProveedor(nombre, oficio string, lat, lon *float64) *model.Proveedor {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := &model.Proveedor{ID: w.id(), NombreCompleto: nombre, Email: strings.ToLower(nombre) + "@example.com", Telefono: "+56900000000", Oficio: oficio, Lat: lat, Lon: lon, Creado: w.tick()}
	w.proveedores[p.ID] = p
	return p
}

func f64(v float64) *float64 { return &v }

// emailTaken checks both account tables. Callers hold w.mu.
func (w *world) emailTaken(email string) bool {
	for _, u := range w.usuarios {
		if strings.EqualFold(u.Email, email) {
			return true
		}
	}
	for _, p := range w.proveedores {
		if strings.EqualFold(p.Email, email) {
			return true
		}
	}
	return false
}

// --- usuarios -----------------------------------------------------------------

type fakeUsuarios struct{ w *world }

func (f fakeUsuarios) Create(_ context.Context, u *model.Usuario) (*model.Usuario, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if f.w.emailTaken(u.Email) {
		return nil, fmt.Errorf("failed to create usuario: %w", repository.ErrEmailTaken)
	}
	cp := *u
	cp.ID = f.w.id()
	cp.Creado = f.w.tick()
	f.w.usuarios[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f fakeUsuarios) GetByID(_ context.Context, id int64) (*model.Usuario, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	u, ok := f.w.usuarios[id]
	if !ok {
		return nil, notFound("usuario")
	}
	cp := *u
	return &cp, nil
}

func (f fakeUsuarios) GetByEmail(_ context.Context, email string) (*model.Usuario, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, u := range f.w.usuarios {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, notFound("usuario")
}

func (f fakeUsuarios) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := f.GetByEmail(ctx, email)
	return err == nil, nil
}

func (f fakeUsuarios) UpdateProfile(_ context.Context, id int64, upd repository.ProfileUpdate) (*model.Usuario, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	u, ok := f.w.usuarios[id]
	if !ok {
		return nil, notFound("usuario")
	}
	if upd.Telefono != nil {
		u.Telefono = upd.Telefono
	}
	if upd.Direccion != nil {
		u.Direccion = upd.Direccion
	}
	if upd.SetCoordinates {
		u.Lat, u.Lon = upd.Coordinates.Lat, upd.Coordinates.Lon
	}
	cp := *u
	return &cp, nil
}

// --- proveedores --------------------------------------------------------------

type fakeProveedores struct{ w *world }

func (f fakeProveedores) Create(_ context.Context, p *model.Proveedor) (*model.Proveedor, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if f.w.emailTaken(p.Email) {
		return nil, fmt.Errorf("failed to create proveedor: %w", repository.ErrEmailTaken)
	}
	cp := *p
	cp.ID = f.w.id()
	cp.Creado = f.w.tick()
	f.w.proveedores[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f fakeProveedores) GetByID(_ context.Context, id int64) (*model.Proveedor, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	p, ok := f.w.proveedores[id]
	if !ok {
		return nil, notFound("proveedor")
	}
	cp := *p
	return &cp, nil
}

func (f fakeProveedores) GetByEmail(_ context.Context, email string) (*model.Proveedor, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, p := range f.w.proveedores {
		if strings.EqualFold(p.Email, email) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, notFound("proveedor")
}

func (f fakeProveedores) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := f.GetByEmail(ctx, email)
	return err == nil, nil
}

func (f fakeProveedores) UpdateProfile(_ context.Context, id int64, upd repository.ProfileUpdate) (*model.Proveedor, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	p, ok := f.w.proveedores[id]
	if !ok {
		return nil, notFound("proveedor")
	}
	if upd.Telefono != nil {
		p.Telefono = *upd.Telefono
	}
	if upd.Direccion != nil {
		p.Direccion = upd.Direccion
	}
	if upd.SetCoordinates {
		p.Lat, p.Lon = upd.Coordinates.Lat, upd.Coordinates.Lon
	}
	cp := *p
	return &cp, nil
}

// resumen must be called with the lock held.
func (f fakeProveedores) resumen(p *model.Proveedor) model.ProveedorResumen {
	r := model.ProveedorResumen{Proveedor: *p}
	sum := 0
	for _, c := range f.w.calificaciones {
		if c.ProveedorID == p.ID {
			sum += c.Puntuacion
			r.CalifTotal++
		}
	}
	if r.CalifTotal > 0 {
		r.CalifPromedio = float64(sum) / float64(r.CalifTotal)
	}
	return r
}

func (f fakeProveedores) sorted(keep func(*model.Proveedor) bool) []model.ProveedorResumen {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []model.ProveedorResumen
	for _, p := range f.w.proveedores {
		if keep(p) {
			out = append(out, f.resumen(p))
		}
	}
	slices.SortFunc(out, func(a, b model.ProveedorResumen) int { return int(a.ID - b.ID) })
	return out
}

func (f fakeProveedores) GetResumen(_ context.Context, id int64) (*model.ProveedorResumen, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	p, ok := f.w.proveedores[id]
	if !ok {
		return nil, notFound("proveedor")
	}
	r := f.resumen(p)
	return &r, nil
}

func (f fakeProveedores) List(_ context.Context, limit int) ([]model.ProveedorResumen, error) {
	all := f.sorted(func(*model.Proveedor) bool { return true })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f fakeProveedores) ListLocated(_ context.Context) ([]model.ProveedorResumen, error) {
	return f.sorted(func(p *model.Proveedor) bool { return p.Lat != nil && p.Lon != nil }), nil
}

func (f fakeProveedores) Search(_ context.Context, term string) ([]model.ProveedorResumen, error) {
	term = strings.ToLower(term)
	return f.sorted(func(p *model.Proveedor) bool {
		return strings.Contains(strings.ToLower(p.Oficio), term) ||
			strings.Contains(strings.ToLower(deref(p.Descripcion)), term) ||
			strings.Contains(strings.ToLower(deref(p.Direccion)), term)
	}), nil
}

// --- chat ---------------------------------------------------------------------

type fakeChats struct{ w *world }

func (f fakeChats) GetConversation(_ context.Context, id int64) (*model.Conversacion, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	c, ok := f.w.conversaciones[id]
	if !ok {
		return nil, notFound("conversacion")
	}
	cp := *c
	return &cp, nil
}

func (f fakeChats) findLocked(usuarioID, proveedorID int64) *model.Conversacion {
	for _, c := range f.w.conversaciones {
		if c.UsuarioID == usuarioID && c.ProveedorID == proveedorID {
			return c
		}
	}
	return nil
}

func (f fakeChats) FindConversation(_ context.Context, usuarioID, proveedorID int64) (*model.Conversacion, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if c := f.findLocked(usuarioID, proveedorID); c != nil {
		cp := *c
		return &cp, nil
	}
	return nil, notFound("conversacion")
}

func (f fakeChats) GetOrCreateConversation(_ context.Context, usuarioID, proveedorID int64) (*model.Conversacion, bool, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	return f.getOrCreateLocked(usuarioID, proveedorID)
}

func (f fakeChats) getOrCreateLocked(usuarioID, proveedorID int64) (*model.Conversacion, bool, error) {
	if c := f.findLocked(usuarioID, proveedorID); c != nil {
		cp := *c
		return &cp, false, nil
	}
	c := &model.Conversacion{ID: f.w.id(), UsuarioID: usuarioID, ProveedorID: proveedorID, Creada: f.w.tick()}
	f.w.conversaciones[c.ID] = c
	cp := *c
	return &cp, true, nil
}

func (f fakeChats) ListConversations(_ context.Context, p model.Principal) ([]model.ConversacionResumen, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	out := []model.ConversacionResumen{}
	for _, c := range f.w.conversaciones {
		if !c.Participant(p) {
			continue
		}
		r := model.ConversacionResumen{ID: c.ID}
		if p.IsUsuario() {
			prov := f.w.proveedores[c.ProveedorID]
			r.OtroParticipante, r.Detalle = prov.NombreCompleto, prov.Oficio
		} else {
			r.OtroParticipante, r.Detalle = f.w.usuarios[c.UsuarioID].NombreCompleto, "Cliente"
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b model.ConversacionResumen) int { return int(a.ID - b.ID) })
	return out, nil
}

func (f fakeChats) ListMessages(_ context.Context, conversacionID int64) ([]model.Mensaje, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	out := []model.Mensaje{}
	for _, m := range f.w.mensajes {
		if m.ConversacionID == conversacionID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f fakeChats) CreateMessage(_ context.Context, m *model.Mensaje) (*model.Mensaje, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	cp := *m
	cp.ID = f.w.id()
	cp.Timestamp = f.w.tick()
	f.w.mensajes = append(f.w.mensajes, cp)
	return &cp, nil
}

// --- solicitudes --------------------------------------------------------------

type fakeSolicitudes struct{ w *world }

func (f fakeSolicitudes) Create(_ context.Context, s *model.SolicitudServicio) (*model.SolicitudServicio, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	cp := *s
	cp.ID = f.w.id()
	cp.Estado = model.EstadoPendiente
	cp.Creada = f.w.tick()
	cp.Actualizada = cp.Creada
	f.w.solicitudes[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f fakeSolicitudes) GetByID(_ context.Context, id int64) (*model.SolicitudServicio, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	s, ok := f.w.solicitudes[id]
	if !ok {
		return nil, notFound("solicitud")
	}
	cp := *s
	return &cp, nil
}

func (f fakeSolicitudes) list(keep func(*model.SolicitudServicio) bool) []model.SolicitudServicio {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	out := []model.SolicitudServicio{}
	for _, s := range f.w.solicitudes {
		if keep(s) {
			out = append(out, *s)
		}
	}
	return out
}

func (f fakeSolicitudes) ListFor(_ context.Context, p model.Principal) ([]model.SolicitudServicio, error) {
	out := f.list(func(s *model.SolicitudServicio) bool { return s.OwnedBy(p) })
	slices.SortFunc(out, func(a, b model.SolicitudServicio) int { return b.Creada.Compare(a.Creada) })
	return out, nil
}

func (f fakeSolicitudes) ListForPair(_ context.Context, usuarioID, proveedorID int64) ([]model.SolicitudServicio, error) {
	out := f.list(func(s *model.SolicitudServicio) bool {
		return s.UsuarioID == usuarioID && s.ProveedorID == proveedorID
	})
	slices.SortFunc(out, func(a, b model.SolicitudServicio) int { return a.Creada.Compare(b.Creada) })
	return out, nil
}

func (f fakeSolicitudes) ChatEnabled(_ context.Context, usuarioID, proveedorID int64) (bool, error) {
	return len(f.list(func(s *model.SolicitudServicio) bool {
		return s.UsuarioID == usuarioID && s.ProveedorID == proveedorID && slices.Contains(model.ChatEstados, string(s.Estado))
	})) > 0, nil
}

func (f fakeSolicitudes) transitionLocked(id int64, from, to model.Estado, upd model.TransitionUpdate) (*model.SolicitudServicio, error) {
	s, ok := f.w.solicitudes[id]
	if !ok || s.Estado != from {
		return nil, repository.ErrStateChanged
	}
	now := f.w.tick()
	s.Estado = to
	s.Actualizada = now
	if upd.Monto != nil {
		s.Monto = decimal.NewNullDecimal(*upd.Monto)
	}
	if upd.MotivoRechazo != nil {
		s.MotivoRechazo = upd.MotivoRechazo
	}
	if upd.Pin != nil {
		s.Pin = upd.Pin
		s.PinIntentos = 0
	}
	if upd.ConversacionID != nil {
		s.ConversacionID = upd.ConversacionID
	}
	switch to {
	case model.EstadoAceptada:
		s.AceptadaEn = &now
	case model.EstadoPagado:
		s.PagadaEn = &now
	case model.EstadoCompletado:
		s.CompletadaEn = &now
	}
	cp := *s
	return &cp, nil
}

func (f fakeSolicitudes) Transition(_ context.Context, id int64, from, to model.Estado, upd model.TransitionUpdate) (*model.SolicitudServicio, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	return f.transitionLocked(id, from, to, upd)
}

func (f fakeSolicitudes) Accept(_ context.Context, id int64, monto decimal.Decimal) (*model.SolicitudServicio, *model.Conversacion, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	s, ok := f.w.solicitudes[id]
	if !ok || s.Estado != model.EstadoPendiente {
		return nil, nil, repository.ErrStateChanged
	}
	conv, _, _ := fakeChats(f).getOrCreateLocked(s.UsuarioID, s.ProveedorID)
	updated, err := f.transitionLocked(id, model.EstadoPendiente, model.EstadoAceptada,
		model.TransitionUpdate{Monto: &monto, ConversacionID: &conv.ID})
	return updated, conv, err
}

func (f fakeSolicitudes) ResetPin(_ context.Context, id int64, pin string) (*model.SolicitudServicio, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	s, ok := f.w.solicitudes[id]
	if !ok || s.Estado != model.EstadoPagado {
		return nil, repository.ErrStateChanged
	}
	s.Pin = &pin
	s.PinIntentos = 0
	s.Actualizada = f.w.tick()
	cp := *s
	return &cp, nil
}

func (f fakeSolicitudes) RecordFailedPin(_ context.Context, id int64, max int) (int, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	s, ok := f.w.solicitudes[id]
	if !ok || s.Estado != model.EstadoPagado || s.PinIntentos >= max {
		return max, repository.ErrPinLocked
	}
	s.PinIntentos++
	return s.PinIntentos, nil
}

// --- ratings and portfolio ------------------------------------------------------

type fakeCalificaciones struct{ w *world }

func (f fakeCalificaciones) Upsert(_ context.Context, c *model.Calificacion) (*model.Calificacion, bool, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for i := range f.w.calificaciones {
		existing := &f.w.calificaciones[i]
		if existing.UsuarioID == c.UsuarioID && existing.ProveedorID == c.ProveedorID {
			existing.Puntuacion = c.Puntuacion
			existing.Comentario = c.Comentario
			existing.Timestamp = f.w.tick()
			cp := *existing
			return &cp, false, nil
		}
	}
	cp := *c
	cp.ID = f.w.id()
	cp.Timestamp = f.w.tick()
	f.w.calificaciones = append(f.w.calificaciones, cp)
	return &cp, true, nil
}

func (f fakeCalificaciones) ListForProveedor(_ context.Context, proveedorID int64) ([]model.CalificacionDetalle, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	out := []model.CalificacionDetalle{}
	for _, c := range f.w.calificaciones {
		if c.ProveedorID == proveedorID {
			out = append(out, model.CalificacionDetalle{Calificacion: c, NombreUsuario: f.w.usuarios[c.UsuarioID].NombreCompleto})
		}
	}
	return out, nil
}

type fakePortafolio struct{ w *world }

func (f fakePortafolio) Create(_ context.Context, item *model.PortafolioItem) (*model.PortafolioItem, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	cp := *item
	cp.ID = f.w.id()
	cp.Timestamp = f.w.tick()
	f.w.portafolio[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f fakePortafolio) GetByID(_ context.Context, id int64) (*model.PortafolioItem, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	item, ok := f.w.portafolio[id]
	if !ok {
		return nil, notFound("portafolio")
	}
	cp := *item
	return &cp, nil
}

func (f fakePortafolio) Delete(_ context.Context, id int64) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if _, ok := f.w.portafolio[id]; !ok {
		return notFound("portafolio")
	}
	delete(f.w.portafolio, id)
	return nil
}

func (f fakePortafolio) ListForProveedor(_ context.Context, proveedorID int64) ([]model.PortafolioItem, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	out := []model.PortafolioItem{}
	for _, item := range f.w.portafolio {
		if item.ProveedorID == proveedorID {
			out = append(out, *item)
		}
	}
	slices.SortFunc(out, func(a, b model.PortafolioItem) int { return int(a.ID - b.ID) })
	return out, nil
}

// --- libraries ------------------------------------------------------------------

type fakeGeocoder struct {
	points map[string]geo.Point
	err    error
	calls  int
}

func (g *fakeGeocoder) Geocode(_ context.Context, address string) (geo.Point, bool, error) {
	g.calls++
	if g.err != nil {
		return geo.Point{}, false, g.err
	}
	p, ok := g.points[address]
	return p, ok, nil
}

type fakeSessions struct {
	created   []model.Principal
	destroyed []string
}

func (s *fakeSessions) Create(_ context.Context, p model.Principal) (string, error) {
	s.created = append(s.created, p)
	return "token-" + string(p.Tipo), nil
}

func (s *fakeSessions) Destroy(_ context.Context, token string) error {
	s.destroyed = append(s.destroyed, token)
	return nil
}

type geoRefresh struct {
	tipo      model.AccountType
	id        int64
	direccion string
}

type fakeJobs struct {
	welcome []string
	created []email.RequestCreated
	updated []email.RequestUpdated
	updTo   []string
	geo     []geoRefresh
}

func (j *fakeJobs) EnqueueWelcomeEmail(_ context.Context, to, _ string, _ model.AccountType) error {
	j.welcome = append(j.welcome, to)
	return nil
}

func (j *fakeJobs) EnqueueRequestCreated(_ context.Context, _ string, d email.RequestCreated) error {
	j.created = append(j.created, d)
	return nil
}

func (j *fakeJobs) EnqueueRequestUpdated(_ context.Context, to string, d email.RequestUpdated) error {
	j.updated = append(j.updated, d)
	j.updTo = append(j.updTo, to)
	return nil
}

func (j *fakeJobs) EnqueueGeoRefresh(_ context.Context, tipo model.AccountType, id int64, direccion string) error {
	j.geo = append(j.geo, geoRefresh{tipo: tipo, id: id, direccion: direccion})
	return nil
}

type emitted struct {
	room  string
	event string
	data  any
}

type fakeEmitter struct {
	events []emitted
	err    error
}

func (e *fakeEmitter) Emit(_ context.Context, room, event string, data any) error {
	if e.err != nil {
		return e.err
	}
	e.events = append(e.events, emitted{room: room, event: event, data: data})
	return nil
}

type fakeImages struct {
	saved   map[string][]byte
	removed []string
	err     error
}

func (s *fakeImages) SaveImage(originalName string, r io.Reader) (storage.Stored, error) {
	if s.err != nil {
		return storage.Stored{}, s.err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return storage.Stored{}, err
	}
	if s.saved == nil {
		s.saved = map[string][]byte{}
	}
	name := "abc_" + originalName
	s.saved[name] = buf.Bytes()
	return storage.Stored{Name: name, URL: "/static/uploads/" + name}, nil
}

func (s *fakeImages) Remove(name string) error {
	s.removed = append(s.removed, name)
	delete(s.saved, name)
	return nil
}

// --- helpers --------------------------------------------------------------------

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return string(h)
}

func usuarioP(id int64) model.Principal   { return model.Principal{ID: id, Tipo: model.AccountUsuario} }
func proveedorP(id int64) model.Principal { return model.Principal{ID: id, Tipo: model.AccountProveedor} }

// httpStatus extracts the status of an *errs.HTTPError, or 0.
func httpStatus(err error) int {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}

func httpErr(err error) *errs.HTTPError {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return nil
}
