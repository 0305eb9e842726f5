package product_repo

import (
	"strings"
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing/internal/domain/expense"
	"billing/internal/domain/product"
)

func TestProductColumns(t *testing.T) {
	assert.Contains(t, productColumns, "product_code")
	assert.Contains(t, productColumns, "unit_prices")
	assert.Contains(t, productColumns, "stock_quantity")
	assert.NotContains(t, expenseColumns, "unit_prices")
}

func TestProductRepo_ListQuery(t *testing.T) {
	repo := NewProductRepo(nil)

	sql, args, err := repo.listQuery(product.ListFilter{Query: "ric", Limit: 10}).ToSql()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sql, "SELECT id, product_code, product_name,"))
	assert.True(t, strings.HasSuffix(sql,
		"FROM products WHERE (product_code ILIKE $1 OR product_name ILIKE $2) ORDER BY created_at DESC LIMIT 10"), sql)
	assert.Equal(t, []any{"%ric%", "%ric%"}, args)

	sql, args, err = repo.listQuery(product.ListFilter{}).ToSql()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(sql, "FROM products ORDER BY created_at DESC"), sql)
	assert.Empty(t, args)
}

func TestExpenseSource_BatchQuery(t *testing.T) {
	src := NewExpenseSource(nil)

	q := src.selectBase().Where(squirrel.Eq{"supplier_name": "Sharma", "batch_number": "B1"})
	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE supplier_name <> $1 AND batch_number <> $2 AND batch_number = $3 AND supplier_name = $4")
	assert.Equal(t, []any{"", "", "B1", "Sharma"}, args)

	var _ expense.Source = src
}
