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

	"github.com/example/ec-order-sync/internal/domain/catalog"
	"github.com/example/ec-order-sync/internal/readmodel"
)

// DynamoViewStore keeps the cart item view in DynamoDB for the Lambda
// projector deployment. cart_item_id is the partition key; GSI1 keys
// on product_id for the fan-out, GSI2 on user_id for reads. Product
// fan-out writes absolute values per key, so replaying the same event
// converges on the same rows.
type DynamoViewStore struct {
	client    *dynamodb.Client
	tableName string
}

// dynamoCartItemView is the DynamoDB item structure.
type dynamoCartItemView struct {
	CartItemID         string `dynamodbav:"cart_item_id"`
	ID                 string `dynamodbav:"id"`
	CartID             string `dynamodbav:"cart_id"`
	UserID             string `dynamodbav:"user_id"`
	ProductID          string `dynamodbav:"product_id"`
	ProductName        string `dynamodbav:"product_name"`
	ProductDescription string `dynamodbav:"product_description"`
	ProductPrice       int    `dynamodbav:"product_price"`
	ProductImageURL    string `dynamodbav:"product_image_url"`
	ProductCategory    string `dynamodbav:"product_category"`
	ProductActive      bool   `dynamodbav:"product_active"`
	Available          bool   `dynamodbav:"available"`
	Quantity           int    `dynamodbav:"quantity"`
	UpdatedAt          string `dynamodbav:"updated_at"`
}

func NewDynamoViewStore(client *dynamodb.Client, tableName string) *DynamoViewStore {
	return &DynamoViewStore{client: client, tableName: tableName}
}

func (s *DynamoViewStore) Upsert(ctx context.Context, v *readmodel.CartItemView) error {
	item := dynamoCartItemView{
		CartItemID:         v.CartItemID,
		ID:                 v.ID,
		CartID:             v.CartID,
		UserID:             v.UserID,
		ProductID:          v.ProductID,
		ProductName:        v.ProductName,
		ProductDescription: v.ProductDescription,
		ProductPrice:       v.ProductPrice,
		ProductImageURL:    v.ProductImageURL,
		ProductCategory:    v.ProductCategory,
		ProductActive:      v.ProductActive,
		Available:          v.Available,
		Quantity:           v.Quantity,
		UpdatedAt:          v.UpdatedAt.Format(time.RFC3339Nano),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal cart item view: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put cart item view: %w", err)
	}
	return nil
}

// UpdateQuantity sets the absolute quantity on an existing row. The
// conditional expression turns a missing row into (false, nil) so the
// projector can rebuild it.
func (s *DynamoViewStore) UpdateQuantity(ctx context.Context, cartItemID string, quantity int) (bool, error) {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"cart_item_id": &types.AttributeValueMemberS{Value: cartItemID},
		},
		UpdateExpression:    aws.String("SET quantity = :q, updated_at = :ts"),
		ConditionExpression: aws.String("attribute_exists(cart_item_id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":q":  &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", quantity)},
			":ts": &types.AttributeValueMemberS{Value: time.Now().Format(time.RFC3339Nano)},
		},
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return false, nil
		}
		return false, fmt.Errorf("failed to update quantity: %w", err)
	}
	return true, nil
}

func (s *DynamoViewStore) Delete(ctx context.Context, cartItemID string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"cart_item_id": &types.AttributeValueMemberS{Value: cartItemID},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete cart item view: %w", err)
	}
	return nil
}

// UpdateProductDetails finds every row referencing the product via
// GSI1 and writes the current state to each. All values are absolute.
func (s *DynamoViewStore) UpdateProductDetails(ctx context.Context, p *catalog.Product) error {
	keys, err := s.keysForProduct(ctx, p.ID)
	if err != nil {
		return err
	}

	for _, key := range keys {
		_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName: aws.String(s.tableName),
			Key: map[string]types.AttributeValue{
				"cart_item_id": &types.AttributeValueMemberS{Value: key},
			},
			UpdateExpression: aws.String(
				"SET product_name = :n, product_description = :d, product_price = :p, " +
					"product_image_url = :img, product_category = :c, " +
					"product_active = :a, available = :a, updated_at = :ts"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":n":   &types.AttributeValueMemberS{Value: p.Name},
				":d":   &types.AttributeValueMemberS{Value: p.Description},
				":p":   &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", p.Price)},
				":img": &types.AttributeValueMemberS{Value: p.ImageURL},
				":c":   &types.AttributeValueMemberS{Value: p.Category},
				":a":   &types.AttributeValueMemberBOOL{Value: p.Active},
				":ts":  &types.AttributeValueMemberS{Value: time.Now().Format(time.RFC3339Nano)},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to update views for product %s: %w", p.ID, err)
		}
	}
	return nil
}

func (s *DynamoViewStore) MarkProductUnavailable(ctx context.Context, productID string) error {
	keys, err := s.keysForProduct(ctx, productID)
	if err != nil {
		return err
	}

	for _, key := range keys {
		_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName: aws.String(s.tableName),
			Key: map[string]types.AttributeValue{
				"cart_item_id": &types.AttributeValueMemberS{Value: key},
			},
			UpdateExpression: aws.String("SET product_active = :f, available = :f, updated_at = :ts"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":f":  &types.AttributeValueMemberBOOL{Value: false},
				":ts": &types.AttributeValueMemberS{Value: time.Now().Format(time.RFC3339Nano)},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to mark views unavailable for product %s: %w", productID, err)
		}
	}
	return nil
}

// FindByUserID returns the user's cart rows via GSI2.
func (s *DynamoViewStore) FindByUserID(ctx context.Context, userID string) ([]readmodel.CartItemView, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String("GSI2"),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query views for user %s: %w", userID, err)
	}

	views := make([]readmodel.CartItemView, 0, len(result.Items))
	for _, item := range result.Items {
		var dv dynamoCartItemView
		if err := attributevalue.UnmarshalMap(item, &dv); err != nil {
			continue
		}
		updatedAt, _ := time.Parse(time.RFC3339Nano, dv.UpdatedAt)
		views = append(views, readmodel.CartItemView{
			ID:                 dv.ID,
			CartItemID:         dv.CartItemID,
			CartID:             dv.CartID,
			UserID:             dv.UserID,
			ProductID:          dv.ProductID,
			ProductName:        dv.ProductName,
			ProductDescription: dv.ProductDescription,
			ProductPrice:       dv.ProductPrice,
			ProductImageURL:    dv.ProductImageURL,
			ProductCategory:    dv.ProductCategory,
			ProductActive:      dv.ProductActive,
			Available:          dv.Available,
			Quantity:           dv.Quantity,
			UpdatedAt:          updatedAt,
		})
	}
	return views, nil
}

func (s *DynamoViewStore) keysForProduct(ctx context.Context, productID string) ([]string, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String("GSI1"),
		KeyConditionExpression: aws.String("product_id = :pid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pid": &types.AttributeValueMemberS{Value: productID},
		},
		ProjectionExpression: aws.String("cart_item_id"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query views for product %s: %w", productID, err)
	}

	keys := make([]string, 0, len(result.Items))
	for _, item := range result.Items {
		var row struct {
			CartItemID string `dynamodbav:"cart_item_id"`
		}
		if err := attributevalue.UnmarshalMap(item, &row); err != nil {
			continue
		}
		keys = append(keys, row.CartItemID)
	}
	return keys, nil
}
