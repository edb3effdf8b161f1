package databases

// go generate: mockery --name CaseDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/odontoforense/case-api/models"
)

const caseName = "cases"

// CaseDatabase contains the methods to use with the case database
type CaseDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Case, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error
}

type caseDatabase struct {
	db DatabaseHelper
}

// NewCaseDatabase initializes a new instance of case database with the provided db connection
func NewCaseDatabase(db DatabaseHelper) CaseDatabase {
	return &caseDatabase{
		db: db,
	}
}

func (c *caseDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Case, error) {
	caseDoc := &models.Case{}
	err := c.db.Collection(caseName).FindOne(ctx, filter, opts...).Decode(&caseDoc)
	if err != nil {
		return nil, err
	}
	return caseDoc, nil
}

func (c *caseDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error {
	res, err := c.db.Collection(caseName).UpdateOne(ctx, filter, update, opts...)
	if err != nil {
		return err
	}
	if res != nil && res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
