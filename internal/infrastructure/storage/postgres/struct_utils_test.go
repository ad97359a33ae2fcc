package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"smartsupply/internal/core/id"
)

type StampFields struct {
	CreatedAt time.Time `db:"created_at"`
	Ignored   string    `db:"-"`
}

type stockRow struct {
	StampFields
	ID       id.ID  `db:"id"`
	Number   string `db:"batch_number"`
	Quantity int64  `db:"quantity"`
	Lines    []int  `db:"-"`
	Untagged string
}

func TestExtractDBColumns_Embedded(t *testing.T) {
	cols := ExtractDBColumns[stockRow]()

	assert.ElementsMatch(t, []string{"created_at", "id", "batch_number", "quantity"}, cols)
	assert.NotContains(t, cols, "-")
}

func TestExtractDBColumns_Pointer(t *testing.T) {
	assert.Equal(t, ExtractDBColumns[stockRow](), ExtractDBColumns[*stockRow]())
	assert.Nil(t, ExtractDBColumns[int]())
}

func TestStructToMap(t *testing.T) {
	now := time.Now().UTC()
	row := &stockRow{
		StampFields: StampFields{CreatedAt: now, Ignored: "x"},
		ID:          id.New(),
		Number:      "LOT-1",
		Quantity:    12,
		Lines:       []int{1},
		Untagged:    "y",
	}

	m := StructToMap(row)

	assert.Len(t, m, 4)
	assert.Equal(t, row.ID, m["id"])
	assert.Equal(t, "LOT-1", m["batch_number"])
	assert.Equal(t, int64(12), m["quantity"])
	assert.Equal(t, now, m["created_at"])

	// cached metadata gives the same result
	assert.Equal(t, m, StructToMap(*row))
	assert.Nil(t, StructToMap(42))
}

type auditedRow struct {
	*StampFields
	ID id.ID `db:"id"`
}

func TestStructToMap_NilEmbeddedPointer(t *testing.T) {
	assert.Equal(t, []string{"created_at", "id"}, ExtractDBColumns[auditedRow]())

	rowID := id.New()
	m := StructToMap(auditedRow{ID: rowID})
	assert.Equal(t, map[string]any{"id": rowID}, m)

	now := time.Now().UTC()
	m = StructToMap(auditedRow{StampFields: &StampFields{CreatedAt: now}, ID: rowID})
	assert.Equal(t, now, m["created_at"])
}

func TestExtractDBColumns_ReturnsCopy(t *testing.T) {
	cols := ExtractDBColumns[stockRow]()
	cols[0] = "mutated"

	assert.NotContains(t, ExtractDBColumns[stockRow](), "mutated")
}
