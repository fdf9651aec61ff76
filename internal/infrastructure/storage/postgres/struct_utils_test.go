package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"facturador/internal/core/entity"
	"facturador/internal/core/id"
)

type mockCatalog struct {
	entity.BaseCatalog
	TaxID string `db:"tax_id" json:"taxId"`
	Name  string `db:"name" json:"name"`
}

type mockDocument struct {
	entity.BaseDocument
	Status string `db:"status" json:"status"`
	Skip   string `db:"-" json:"skip"`
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[mockCatalog]()
	for _, expected := range []string{"id", "version", "tax_id", "name"} {
		assert.Contains(t, cols, expected)
	}

	docCols := ExtractDBColumns[mockDocument]()
	for _, expected := range []string{"id", "version", "created_at", "updated_at", "status"} {
		assert.Contains(t, docCols, expected)
	}
	assert.NotContains(t, docCols, "-")
}

func TestStructToMap(t *testing.T) {
	cat := mockCatalog{
		BaseCatalog: entity.BaseCatalog{
			BaseEntity: entity.BaseEntity{
				ID:      id.New(),
				Version: 5,
			},
		},
		TaxID: "B39302369",
		Name:  "Zebra Publicidad",
	}

	m := StructToMap(cat)

	assert.Equal(t, cat.ID, m["id"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, "B39302369", m["tax_id"])
	assert.Equal(t, "Zebra Publicidad", m["name"])
}

func TestStructToMap_SkipsIgnoredFields(t *testing.T) {
	doc := mockDocument{
		BaseDocument: entity.NewBaseDocument(),
		Status:       "DRAFT",
		Skip:         "not persisted",
	}

	m := StructToMap(&doc)

	assert.Equal(t, "DRAFT", m["status"])
	assert.NotContains(t, m, "-")
	assert.NotContains(t, m, "skip")
	assert.IsType(t, time.Time{}, m["created_at"])
}
