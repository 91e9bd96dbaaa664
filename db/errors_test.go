package db_test

import (
	"errors"
	"fmt"
	"testing"

	"leaddesk/db"
	"leaddesk/db/dbtest"
	"leaddesk/models"

	"github.com/jinzhu/gorm"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolationSQLite(t *testing.T) {
	conn := dbtest.New(t)

	first := models.Contact{Name: "Ana", Phone: models.StrPtr("+5215500000001")}
	require.NoError(t, conn.Create(&first).Error)

	dup := models.Contact{Name: "Otra Ana", Phone: models.StrPtr("+5215500000001")}
	err := conn.Create(&dup).Error
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err))
	assert.True(t, db.IsUniqueViolation(fmt.Errorf("create contact: %w", err)))
}

func TestIsUniqueViolationAllowsManyNulls(t *testing.T) {
	conn := dbtest.New(t)

	require.NoError(t, conn.Create(&models.Contact{Name: "A"}).Error)
	require.NoError(t, conn.Create(&models.Contact{Name: "B"}).Error)
}

func TestIsUniqueViolationPostgres(t *testing.T) {
	assert.True(t, db.IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, db.IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.True(t, db.IsUniqueViolation(gorm.Errors{errors.New("other"), &pq.Error{Code: "23505"}}))
}

func TestIsUniqueViolationOther(t *testing.T) {
	assert.False(t, db.IsUniqueViolation(nil))
	assert.False(t, db.IsUniqueViolation(errors.New("boom")))
	assert.False(t, db.IsUniqueViolation(gorm.ErrRecordNotFound))
	assert.True(t, db.IsNotFound(gorm.ErrRecordNotFound))
}
