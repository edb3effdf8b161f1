package databases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/odontoforense/case-api/databases"
	"github.com/odontoforense/case-api/databases/mocks"
	"github.com/odontoforense/case-api/models"
)

func TestEvidenceDatabase_InsertOne(t *testing.T) {
	ctx := context.Background()
	ok := models.Evidence{ID: primitive.NewObjectID(), CaseID: "C1", Tipo: "Imagem"}
	broken := models.Evidence{ID: primitive.NewObjectID(), CaseID: "C1", Tipo: "Texto"}

	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	insertResult := &mocks.InsertOneResultHelper{}

	insertResult.On("Decode").Return(ok.ID)
	collectionHelper.On("InsertOne", ctx, ok).Return(insertResult, nil)
	collectionHelper.On("InsertOne", ctx, broken).Return(nil, errors.New("mocked-error"))
	dbHelper.On("Collection", "evidences").Return(collectionHelper)

	evidenceDB := databases.NewEvidenceDatabase(dbHelper)

	res, err := evidenceDB.InsertOne(ctx, ok)
	assert.NoError(t, err)
	assert.Equal(t, ok.ID, res.Decode())

	_, err = evidenceDB.InsertOne(ctx, broken)
	assert.EqualError(t, err, "mocked-error")
}
