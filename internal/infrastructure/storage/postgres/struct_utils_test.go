package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"billing/internal/core/id"
)

type Stamped struct {
	CreatedAt time.Time `db:"created_at"`
}

type row struct {
	Stamped
	ID       id.ID  `db:"id"`
	Name     string `db:"name"`
	Internal string `db:"-"`
	Note     string
}

func TestColumns_IncludesPromotedFields(t *testing.T) {
	assert.Equal(t, []string{"created_at", "id", "name"}, Columns[row]())
}

func TestStructToMap(t *testing.T) {
	now := time.Now().UTC()
	r := row{Stamped: Stamped{CreatedAt: now}, ID: id.New(), Name: "Rice", Internal: "x"}

	m := StructToMap(&r)
	assert.Len(t, m, 3)
	assert.Equal(t, r.ID, m["id"])
	assert.Equal(t, "Rice", m["name"])
	assert.Equal(t, now, m["created_at"])

	limited := StructToMap(r, "name")
	assert.Equal(t, map[string]any{"name": "Rice"}, limited)

	assert.Nil(t, StructToMap(42))
}

func TestWithout(t *testing.T) {
	assert.Equal(t, []string{"name"}, Without([]string{"id", "name", "created_at"}, "id", "created_at"))
}
