package repository

import (
	"campus-market/internal/marketerrors"
	model "campus-market/internal/models"
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	productCollectionName = "products"
	bidCollectionName     = "bids"
	reportCollectionName  = "reports"
)

// productDoc is the stored shape of a product. HighestBid mirrors the
// largest accepted bid and acts as the compare-and-set guard for new bids.
type productDoc struct {
	model.Product `bson:",inline"`
	HighestBid    float64 `bson:"highest_bid"`
}

// MongoRepo implements MarketDB on MongoDB
type MongoRepo struct {
	client   *mongo.Client
	products *mongo.Collection
	bids     *mongo.Collection
	reports  *mongo.Collection
}

// NewMongoRepo connects to MongoDB and pings the primary
func NewMongoRepo(ctx context.Context, uri, dbName string) (*MongoRepo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return newMongoRepo(client, client.Database(dbName)), nil
}

func newMongoRepo(client *mongo.Client, db *mongo.Database) *MongoRepo {
	return &MongoRepo{
		client:   client,
		products: db.Collection(productCollectionName),
		bids:     db.Collection(bidCollectionName),
		reports:  db.Collection(reportCollectionName),
	}
}

// EnsureIndexes creates the indexes used by listing and bid queries
func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	if _, err := r.products.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "created_at", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("failed to create product indexes: %w", err)
	}
	if _, err := r.bids.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "product_id", Value: 1}, {Key: "bid_price", Value: -1}},
	}); err != nil {
		return fmt.Errorf("failed to create bid indexes: %w", err)
	}
	if _, err := r.reports.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "product_id", Value: 1}},
	}); err != nil {
		return fmt.Errorf("failed to create report indexes: %w", err)
	}
	return nil
}

// Close disconnects the client
func (r *MongoRepo) Close(ctx context.Context) error {
	if err := r.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect mongodb: %w", err)
	}
	return nil
}

// Ping checks connectivity to the primary
func (r *MongoRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

func (r *MongoRepo) CreateProduct(ctx context.Context, product model.Product) error {
	if _, err := r.products.InsertOne(ctx, productDoc{Product: product}); err != nil {
		return fmt.Errorf("failed to insert product %s: %w", product.ID, err)
	}
	return nil
}

func (r *MongoRepo) GetProduct(ctx context.Context, productID string) (model.Product, error) {
	doc, err := r.findProductDoc(ctx, productID)
	if err != nil {
		return model.Product{}, err
	}
	return doc.Product, nil
}

func (r *MongoRepo) findProductDoc(ctx context.Context, productID string) (productDoc, error) {
	var doc productDoc
	err := r.products.FindOne(ctx, bson.M{"_id": productID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return productDoc{}, fmt.Errorf("get product %s: %w", productID, marketerrors.ErrProductNotFound)
	}
	if err != nil {
		return productDoc{}, fmt.Errorf("failed to find product %s: %w", productID, err)
	}
	return doc, nil
}

func (r *MongoRepo) ListProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.products.Find(ctx, buildProductFilter(filter), findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	products := make([]model.Product, 0, len(docs))
	for _, d := range docs {
		products = append(products, d.Product)
	}
	return products, nil
}

func (r *MongoRepo) SetProductSold(ctx context.Context, productID string, isSold bool, at time.Time) (model.Product, error) {
	update := bson.M{"$set": bson.M{"is_sold": true, "sold_at": at}}
	if !isSold {
		update = bson.M{"$set": bson.M{"is_sold": false}, "$unset": bson.M{"sold_at": ""}}
	}
	product, err := r.updateProduct(ctx, productID, update)
	if err != nil {
		return model.Product{}, fmt.Errorf("set sold on product %s: %w", productID, err)
	}
	return product, nil
}

func (r *MongoRepo) SetProductBanned(ctx context.Context, productID string, isBanned bool) (model.Product, error) {
	product, err := r.updateProduct(ctx, productID, bson.M{"$set": bson.M{"is_banned": isBanned}})
	if err != nil {
		return model.Product{}, fmt.Errorf("set banned on product %s: %w", productID, err)
	}
	return product, nil
}

func (r *MongoRepo) updateProduct(ctx context.Context, productID string, update bson.M) (model.Product, error) {
	var doc productDoc
	err := r.products.FindOneAndUpdate(ctx,
		bson.M{"_id": productID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Product{}, marketerrors.ErrProductNotFound
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("failed to update product: %w", err)
	}
	return doc.Product, nil
}

// RecordBid raises the product's highest_bid with a conditional update before
// inserting the bid, so only one of several concurrent equal bids can pass.
func (r *MongoRepo) RecordBid(ctx context.Context, bid model.Bid) error {
	var before productDoc
	err := r.products.FindOneAndUpdate(ctx,
		bson.M{
			"_id":         bid.ProductID,
			"is_sold":     false,
			"is_banned":   bson.M{"$ne": true},
			"highest_bid": bson.M{"$lt": bid.BidPrice},
		},
		bson.M{"$set": bson.M{"highest_bid": bid.BidPrice}},
	).Decode(&before)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return r.explainRejectedBid(ctx, bid)
	}
	if err != nil {
		return fmt.Errorf("failed to reserve bid on product %s: %w", bid.ProductID, err)
	}

	if _, err := r.bids.InsertOne(ctx, bid); err != nil {
		// give the reservation back unless a higher bid already replaced it
		_, _ = r.products.UpdateOne(ctx,
			bson.M{"_id": bid.ProductID, "highest_bid": bid.BidPrice},
			bson.M{"$set": bson.M{"highest_bid": before.HighestBid}},
		)
		return fmt.Errorf("failed to insert bid %s: %w", bid.ID, err)
	}
	return nil
}

func (r *MongoRepo) explainRejectedBid(ctx context.Context, bid model.Bid) error {
	doc, err := r.findProductDoc(ctx, bid.ProductID)
	if err != nil {
		return fmt.Errorf("record bid for product %s: %w", bid.ProductID, err)
	}
	if doc.IsBanned {
		return fmt.Errorf("record bid for product %s: %w", bid.ProductID, marketerrors.ErrProductBanned)
	}
	if doc.IsSold {
		return fmt.Errorf("record bid for product %s: %w", bid.ProductID, marketerrors.ErrProductSold)
	}
	return fmt.Errorf("record bid for product %s: %w", bid.ProductID, &marketerrors.BidTooLowError{Highest: doc.HighestBid})
}

func (r *MongoRepo) GetBidsByProduct(ctx context.Context, productID string) ([]model.Bid, error) {
	findOptions := options.Find().SetSort(bidSort)

	cursor, err := r.bids.Find(ctx, bson.M{"product_id": productID}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids for product %s: %w", productID, err)
	}
	defer cursor.Close(ctx)

	bids := []model.Bid{}
	if err := cursor.All(ctx, &bids); err != nil {
		return nil, fmt.Errorf("failed to decode bids: %w", err)
	}
	return bids, nil
}

func (r *MongoRepo) GetHighestBid(ctx context.Context, productID string) (model.Bid, error) {
	var bid model.Bid
	err := r.bids.FindOne(ctx, bson.M{"product_id": productID}, options.FindOne().SetSort(bidSort)).Decode(&bid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Bid{}, fmt.Errorf("get highest bid for product %s: %w", productID, marketerrors.ErrNoBids)
	}
	if err != nil {
		return model.Bid{}, fmt.Errorf("failed to find highest bid for product %s: %w", productID, err)
	}
	return bid, nil
}

func (r *MongoRepo) CountBids(ctx context.Context) (int, error) {
	n, err := r.bids.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count bids: %w", err)
	}
	return int(n), nil
}

func (r *MongoRepo) CreateReport(ctx context.Context, report model.Report) error {
	if _, err := r.findProductDoc(ctx, report.ProductID); err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if _, err := r.reports.InsertOne(ctx, report); err != nil {
		return fmt.Errorf("failed to insert report %s: %w", report.ID, err)
	}
	return nil
}

func (r *MongoRepo) ListReports(ctx context.Context) ([]model.Report, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.reports.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer cursor.Close(ctx)

	reports := []model.Report{}
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("failed to decode reports: %w", err)
	}
	return reports, nil
}

func (r *MongoRepo) CountReportsByProduct(ctx context.Context) (map[string]int, error) {
	cursor, err := r.reports.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$product_id"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count reports: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ProductID string `bson:"_id"`
		Count     int    `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode report counts: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.ProductID] = row.Count
	}
	return counts, nil
}

var bidSort = bson.D{{Key: "bid_price", Value: -1}, {Key: "created_at", Value: 1}}

// buildProductFilter translates a ProductFilter into a Mongo query document
func buildProductFilter(filter model.ProductFilter) bson.M {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.IsCoupon != nil {
		query["is_coupon"] = *filter.IsCoupon
	}
	if filter.MessName != "" {
		query["mess_name"] = filter.MessName
	}
	if filter.MealType != "" {
		query["meal_type"] = filter.MealType
	}
	if filter.Location != "" {
		query["location"] = filter.Location
	}
	if filter.IsSold != nil {
		query["is_sold"] = *filter.IsSold
	}
	if filter.IsBanned != nil {
		// documents written before the ban flag existed have no is_banned field
		if *filter.IsBanned {
			query["is_banned"] = true
		} else {
			query["is_banned"] = bson.M{"$ne": true}
		}
	}
	if filter.Search != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(filter.Search), "$options": "i"}
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		}
	}
	return query
}
