package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/backoffice-api/internal/application/inventory"
	"github.com/jhoicas/backoffice-api/internal/application/release"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/events"
	"github.com/jhoicas/backoffice-api/pkg/config"
)

const catalogoDemo = `<?xml version="1.0" encoding="UTF-8"?>
<catalogo empresa="c-demo">
  <bodega id="w-central" nombre="Central" direccion="Calle 1"/>
  <bodega id="w-taller" nombre="Taller"/>
  <producto id="p-tornillo" sku="TOR-1" nombre="Tornillo" costo="4" precio="6"/>
  <existencia producto="p-tornillo" bodega="w-central" cantidad="25"/>
</catalogo>`

func memoryConfig(t *testing.T, seedFile string) *config.Config {
	t.Helper()
	return &config.Config{
		Storage: config.StorageConfig{Driver: config.StorageMemory, SeedFile: seedFile},
		Release: config.ReleaseConfig{NumberPrefix: "DSP", SequenceBackend: config.StoragePostgres},
		Events:  config.EventsConfig{Backend: config.BackendLog},
	}
}

func TestOpenBackend_MemoriaConSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalogo.xml")
	require.NoError(t, os.WriteFile(path, []byte(catalogoDemo), 0o600))
	ctx := context.Background()
	log := zerolog.Nop()

	be, err := openBackend(ctx, memoryConfig(t, path), log)
	require.NoError(t, err)
	t.Cleanup(be.Close)
	require.Len(t, be.opening, 1)

	uow := inventory.NewUnitOfWork(be.tx, events.NewLogPublisher(log), log)
	movements := inventory.NewMovementUseCase(uow, be.catalog, be.locations, be.stock,
		inventory.NewLedger(be.movements, log, nil))
	require.NoError(t, be.loadOpeningStock(ctx, movements))

	lvl, err := movements.GetLevel(ctx, "c-demo", "p-tornillo", "w-central")
	require.NoError(t, err)
	assert.Equal(t, int64(25), lvl.Quantity)

	wf := release.NewWorkflowUseCase(uow, be.releases, be.catalog, be.locations, be.numbers, log)
	rel, err := wf.Create(ctx, release.CreateInput{
		CompanyID: "c-demo", RequestedBy: "u-1", FromLocationID: "w-central", ToLocationID: "w-taller",
		Items: []release.ItemInput{{ProductID: "p-tornillo", Quantity: 5}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rel.ReleaseNumber)
}

func TestOpenBackend_SeedInvalido(t *testing.T) {
	_, err := openBackend(context.Background(), memoryConfig(t, filepath.Join(t.TempDir(), "no-existe.xml")), zerolog.Nop())
	assert.Error(t, err)
}
