package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/sebastianleon1-sys/Zerby2/internal/database"
	"github.com/sebastianleon1-sys/Zerby2/internal/model"
	"github.com/sebastianleon1-sys/Zerby2/internal/repository"
)

// SeedFile is the YAML layout accepted by `zerby seed`. Coordinates are
// taken as given; seeding never calls the geocoder.
type SeedFile struct {
	Usuarios    []SeedUsuario   `yaml:"usuarios"`
	Proveedores []SeedProveedor `yaml:"proveedores"`
}

type SeedUsuario struct {
	NombreCompleto string   `yaml:"nombre_completo"`
	Email          string   `yaml:"email"`
	Password       string   `yaml:"password"`
	Telefono       *string  `yaml:"telefono"`
	Direccion      *string  `yaml:"direccion"`
	Lat            *float64 `yaml:"lat"`
	Lon            *float64 `yaml:"lon"`
}

type SeedProveedor struct {
	NombreCompleto   string   `yaml:"nombre_completo"`
	Email            string   `yaml:"email"`
	Password         string   `yaml:"password"`
	Telefono         string   `yaml:"telefono"`
	Oficio           string   `yaml:"oficio"`
	Descripcion      *string  `yaml:"descripcion"`
	Direccion        *string  `yaml:"direccion"`
	Horario          *string  `yaml:"horario"`
	AtiendeUrgencias bool     `yaml:"atiende_urgencias"`
	Lat              *float64 `yaml:"lat"`
	Lon              *float64 `yaml:"lon"`
}

// ParseSeedFile decodes and checks a seed document. Unknown keys are errors
// so a typo does not silently drop a field.
func ParseSeedFile(r io.Reader) (*SeedFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f SeedFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, errors.Wrap(err, "decode seed file")
	}

	seen := map[string]bool{}
	check := func(kind string, i int, nombre, email, password string, lat, lon *float64) error {
		key := strings.ToLower(strings.TrimSpace(email))
		switch {
		case strings.TrimSpace(nombre) == "":
			return fmt.Errorf("%s[%d]: nombre_completo is required", kind, i)
		case key == "":
			return fmt.Errorf("%s[%d]: email is required", kind, i)
		case len(password) < 6:
			return fmt.Errorf("%s[%d]: password must have at least 6 characters", kind, i)
		case (lat == nil) != (lon == nil):
			return fmt.Errorf("%s[%d]: lat and lon must be set together", kind, i)
		case seen[key]:
			return fmt.Errorf("%s[%d]: duplicate email %s", kind, i, email)
		}
		seen[key] = true
		return nil
	}

	for i, u := range f.Usuarios {
		if err := check("usuarios", i, u.NombreCompleto, u.Email, u.Password, u.Lat, u.Lon); err != nil {
			return nil, err
		}
	}
	for i, p := range f.Proveedores {
		if err := check("proveedores", i, p.NombreCompleto, p.Email, p.Password, p.Lat, p.Lon); err != nil {
			return nil, err
		}
		if p.Telefono == "" || p.Oficio == "" {
			return nil, fmt.Errorf("proveedores[%d]: telefono and oficio are required", i)
		}
	}

	return &f, nil
}

// SeedResult counts what a seed run did.
type SeedResult struct {
	Usuarios    int
	Proveedores int
	Skipped     int
}

type seedUsuarios interface {
	Create(ctx context.Context, u *model.Usuario) (*model.Usuario, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

type seedProveedores interface {
	Create(ctx context.Context, p *model.Proveedor) (*model.Proveedor, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// seeder inserts accounts whose email is not taken in either table, so
// running the same file twice is harmless.
type seeder struct {
	usuarios    seedUsuarios
	proveedores seedProveedores
	cost        int
	logger      *zerolog.Logger
}

func (s *seeder) emailTaken(ctx context.Context, email string) (bool, error) {
	if taken, err := s.usuarios.EmailExists(ctx, email); err != nil || taken {
		return taken, err
	}
	return s.proveedores.EmailExists(ctx, email)
}

func (s *seeder) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(h), nil
}

func (s *seeder) Run(ctx context.Context, f *SeedFile) (SeedResult, error) {
	var res SeedResult

	for _, in := range f.Usuarios {
		email := strings.ToLower(strings.TrimSpace(in.Email))
		taken, err := s.emailTaken(ctx, email)
		if err != nil {
			return res, err
		}
		if taken {
			s.logger.Info().Str("email", email).Msg("usuario already exists, skipping")
			res.Skipped++
			continue
		}

		hash, err := s.hash(in.Password)
		if err != nil {
			return res, err
		}
		if _, err := s.usuarios.Create(ctx, &model.Usuario{
			NombreCompleto: strings.TrimSpace(in.NombreCompleto),
			Email:          email,
			PasswordHash:   hash,
			Telefono:       in.Telefono,
			Direccion:      in.Direccion,
			Lat:            in.Lat,
			Lon:            in.Lon,
		}); err != nil {
			return res, errors.Wrapf(err, "seed usuario %s", email)
		}
		res.Usuarios++
	}

	for _, in := range f.Proveedores {
		email := strings.ToLower(strings.TrimSpace(in.Email))
		taken, err := s.emailTaken(ctx, email)
		if err != nil {
			return res, err
		}
		if taken {
			s.logger.Info().Str("email", email).Msg("proveedor already exists, skipping")
			res.Skipped++
			continue
		}

		hash, err := s.hash(in.Password)
		if err != nil {
			return res, err
		}
		if _, err := s.proveedores.Create(ctx, &model.Proveedor{
			NombreCompleto:   strings.TrimSpace(in.NombreCompleto),
			Email:            email,
			PasswordHash:     hash,
			Telefono:         in.Telefono,
			Oficio:           in.Oficio,
			Descripcion:      in.Descripcion,
			Direccion:        in.Direccion,
			Horario:          in.Horario,
			AtiendeUrgencias: in.AtiendeUrgencias,
			Lat:              in.Lat,
			Lon:              in.Lon,
		}); err != nil {
			return res, errors.Wrapf(err, "seed proveedor %s", email)
		}
		res.Proveedores++
	}

	return res, nil
}

func seedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo usuarios and proveedores from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			fh, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open seed file: %w", err)
			}
			defer fh.Close()

			seed, err := ParseSeedFile(fh)
			if err != nil {
				return err
			}

			cfg, log, loggerService, err := bootstrap()
			if err != nil {
				return err
			}
			defer loggerService.Shutdown()

			db, err := database.New(cfg, log, loggerService)
			if err != nil {
				return err
			}
			defer db.Close()

			repos := repository.New(db.Pool)
			s := &seeder{
				usuarios:    repos.Usuario,
				proveedores: repos.Proveedor,
				cost:        bcrypt.DefaultCost,
				logger:      log,
			}

			res, err := s.Run(commandContext(cmd), seed)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d usuarios and %d proveedores (%d skipped).\n",
				res.Usuarios, res.Proveedores, res.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "seed.yaml", "Seed file path")

	return cmd
}
