package repository

import (
	"testing"
	"time"

	repo "ortus/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

func TestTranslateGormErr(t *testing.T) {
	assert.NoError(t, translateGormErr(nil, "op"))
	assert.ErrorIs(t, translateGormErr(gorm.ErrRecordNotFound, "op"), repo.ErrNotFound)

	dup := &pgconn.PgError{Code: "23505", ConstraintName: "uq_users_phone_number"}
	err := translateGormErr(errors.WithStack(dup), "create user")
	assert.ErrorIs(t, err, repo.ErrDuplicate)
	assert.Contains(t, err.Error(), "uq_users_phone_number")

	other := errors.New("boom")
	err = translateGormErr(other, "list products")
	assert.ErrorIs(t, err, other)
	assert.Contains(t, err.Error(), "list products")
}

func TestTranslateMongoErr(t *testing.T) {
	assert.NoError(t, translateMongoErr(nil, "op"))
	assert.ErrorIs(t, translateMongoErr(mongo.ErrNoDocuments, "op"), repo.ErrNotFound)

	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	assert.ErrorIs(t, translateMongoErr(dup, "create user"), repo.ErrDuplicate)
}

func TestTimeRange(t *testing.T) {
	assert.Nil(t, timeRange(nil, nil))

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	assert.Equal(t, bson.M{"$gte": from}, timeRange(&from, nil))
	assert.Equal(t, bson.M{"$gte": from, "$lte": to}, timeRange(&from, &to))
}

func TestNormalizePage(t *testing.T) {
	l, o := normalizePage(0, -5)
	assert.Equal(t, 50, l)
	assert.Equal(t, 0, o)

	l, o = normalizePage(500, 10)
	assert.Equal(t, 50, l)
	assert.Equal(t, 10, o)

	l, _ = normalizePage(20, 0)
	assert.Equal(t, 20, l)
}
