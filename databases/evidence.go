package databases

// go generate: mockery --name EvidenceDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/odontoforense/case-api/models"
)

const evidenceName = "evidences"

// EvidenceDatabase contains the methods to use with the evidence database
type EvidenceDatabase interface {
	InsertOne(ctx context.Context, evidence models.Evidence, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
}

type evidenceDatabase struct {
	db DatabaseHelper
}

// NewEvidenceDatabase initializes a new instance of evidence database with the provided db connection
func NewEvidenceDatabase(db DatabaseHelper) EvidenceDatabase {
	return &evidenceDatabase{
		db: db,
	}
}

func (e *evidenceDatabase) InsertOne(ctx context.Context, evidence models.Evidence, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return e.db.Collection(evidenceName).InsertOne(ctx, evidence, opts...)
}
