package settlements

import (
	"context"

	"frontdesk-service/internal/app/contracts"
	"frontdesk-service/internal/app/models"
	"frontdesk-service/internal/pkg/constvars"
	"frontdesk-service/internal/pkg/exceptions"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SettlementMongoRepository struct {
	Collection *mongo.Collection
}

func NewSettlementMongoRepository(db *mongo.Client, dbName string) contracts.SettlementRepository {
	return &SettlementMongoRepository{
		Collection: db.Database(dbName).Collection(constvars.MongoSettlementsCollection),
	}
}

func (repo *SettlementMongoRepository) InsertSettlement(ctx context.Context, record *models.SettlementRecord) error {
	_, err := repo.Collection.InsertOne(ctx, record)
	if err != nil {
		return exceptions.ErrMongoCannotInsertEntity(err)
	}
	return nil
}

func (repo *SettlementMongoRepository) FindByInvoiceID(ctx context.Context, invoiceID string) ([]models.SettlementRecord, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "closed_at", Value: -1}})
	cursor, err := repo.Collection.Find(ctx, bson.M{"invoice_id": invoiceID}, findOptions)
	if err != nil {
		return nil, exceptions.ErrMongoCannotFindEntity(err)
	}
	defer cursor.Close(ctx)

	var records []models.SettlementRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, exceptions.ErrMongoCannotFindEntity(err)
	}
	return records, nil
}
