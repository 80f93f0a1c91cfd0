package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/example/marketplace/internal/domain/product"
)

// DynamoCatalogStore is the DynamoDB-backed product store. Stock mutations
// use conditional update expressions, giving the same compare-and-decrement
// guarantee as the SQL backend.
type DynamoCatalogStore struct {
	client    *dynamodb.Client
	tableName string
}

// dynamoProduct is the DynamoDB item layout. GSI1PK holds a fixed value so
// the active catalog can be listed from a sparse index.
type dynamoProduct struct {
	ID           string   `dynamodbav:"id"`
	SellerID     string   `dynamodbav:"seller_id"`
	Name         string   `dynamodbav:"name"`
	Description  string   `dynamodbav:"description"`
	Price        int      `dynamodbav:"price"`
	Stock        int      `dynamodbav:"stock"`
	Images       []string `dynamodbav:"images,omitempty"`
	CategoryID   string   `dynamodbav:"category_id"`
	CategoryName string   `dynamodbav:"category_name"`
	IsActive     bool     `dynamodbav:"is_active"`
	CreatedAt    string   `dynamodbav:"created_at"`
	UpdatedAt    string   `dynamodbav:"updated_at"`
	GSI1PK       string   `dynamodbav:"gsi1pk"`
}

func NewDynamoCatalogStore(client *dynamodb.Client, tableName string) *DynamoCatalogStore {
	return &DynamoCatalogStore{client: client, tableName: tableName}
}

func (s *DynamoCatalogStore) Create(ctx context.Context, p *product.Product) error {
	av, err := attributevalue.MarshalMap(toDynamoProduct(p))
	if err != nil {
		return fmt.Errorf("failed to marshal product: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return fmt.Errorf("failed to put product: %w", err)
	}
	return nil
}

func (s *DynamoCatalogStore) Update(ctx context.Context, p *product.Product) error {
	av, err := attributevalue.MarshalMap(toDynamoProduct(p))
	if err != nil {
		return fmt.Errorf("failed to marshal product: %w", err)
	}

	// Full replace, but keep whatever stock concurrent operations have
	// settled on rather than the caller's stale copy.
	delete(av, "stock")
	update := "SET "
	exprValues := map[string]types.AttributeValue{}
	exprNames := map[string]string{}
	i := 0
	for k, v := range av {
		if k == "id" {
			continue
		}
		if i > 0 {
			update += ", "
		}
		update += fmt.Sprintf("#a%d = :v%d", i, i)
		exprNames[fmt.Sprintf("#a%d", i)] = k
		exprValues[fmt.Sprintf(":v%d", i)] = v
		i++
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       productKey(p.ID),
		UpdateExpression:          aws.String(update),
		ExpressionAttributeNames:  exprNames,
		ExpressionAttributeValues: exprValues,
		ConditionExpression:       aws.String("attribute_exists(id)"),
	})
	if isConditionalCheckFailed(err) {
		return product.ErrProductNotFound
	}
	return err
}

func (s *DynamoCatalogStore) GetByID(ctx context.Context, id string) (*product.Product, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       productKey(id),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if out.Item == nil {
		return nil, product.ErrProductNotFound
	}

	var item dynamoProduct
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product: %w", err)
	}
	return fromDynamoProduct(item)
}

func (s *DynamoCatalogStore) ListActive(ctx context.Context) ([]*product.Product, error) {
	return s.scanProducts(ctx, aws.String("is_active = :active"), map[string]types.AttributeValue{
		":active": &types.AttributeValueMemberBOOL{Value: true},
	})
}

func (s *DynamoCatalogStore) ListBySeller(ctx context.Context, sellerID string) ([]*product.Product, error) {
	return s.scanProducts(ctx, aws.String("seller_id = :seller"), map[string]types.AttributeValue{
		":seller": &types.AttributeValueMemberS{Value: sellerID},
	})
}

// DecrementStock takes quantity with a single conditional update; the
// condition expression rejects the write when stock would go negative.
func (s *DynamoCatalogStore) DecrementStock(ctx context.Context, id string, quantity int) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.tableName),
		Key:              productKey(id),
		UpdateExpression: aws.String("SET stock = stock - :q, updated_at = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":q": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", quantity)},
			":t": &types.AttributeValueMemberS{Value: time.Now().Format(time.RFC3339Nano)},
		},
		ConditionExpression: aws.String("attribute_exists(id) AND stock >= :q"),
	})
	if isConditionalCheckFailed(err) {
		if _, getErr := s.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return product.ErrInsufficientStock
	}
	return err
}

func (s *DynamoCatalogStore) IncrementStock(ctx context.Context, id string, quantity int) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.tableName),
		Key:              productKey(id),
		UpdateExpression: aws.String("SET stock = stock + :q, updated_at = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":q": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", quantity)},
			":t": &types.AttributeValueMemberS{Value: time.Now().Format(time.RFC3339Nano)},
		},
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if isConditionalCheckFailed(err) {
		return product.ErrProductNotFound
	}
	return err
}

func (s *DynamoCatalogStore) scanProducts(ctx context.Context, filter *string, values map[string]types.AttributeValue) ([]*product.Product, error) {
	var products []*product.Product
	var startKey map[string]types.AttributeValue

	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:                 aws.String(s.tableName),
			FilterExpression:          filter,
			ExpressionAttributeValues: values,
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan products: %w", err)
		}

		for _, raw := range out.Items {
			var item dynamoProduct
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("failed to unmarshal product: %w", err)
			}
			p, err := fromDynamoProduct(item)
			if err != nil {
				return nil, err
			}
			products = append(products, p)
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return products, nil
}

func productKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

func toDynamoProduct(p *product.Product) dynamoProduct {
	return dynamoProduct{
		ID:           p.ID,
		SellerID:     p.SellerID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		Stock:        p.Stock,
		Images:       p.Images,
		CategoryID:   p.CategoryID,
		CategoryName: p.CategoryName,
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:    p.UpdatedAt.Format(time.RFC3339Nano),
		GSI1PK:       "PRODUCTS",
	}
}

func fromDynamoProduct(item dynamoProduct) (*product.Product, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return &product.Product{
		ID:           item.ID,
		SellerID:     item.SellerID,
		Name:         item.Name,
		Description:  item.Description,
		Price:        item.Price,
		Stock:        item.Stock,
		Images:       item.Images,
		CategoryID:   item.CategoryID,
		CategoryName: item.CategoryName,
		IsActive:     item.IsActive,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}

func isConditionalCheckFailed(err error) bool {
	if err == nil {
		return false
	}
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

var _ product.Store = (*DynamoCatalogStore)(nil)
