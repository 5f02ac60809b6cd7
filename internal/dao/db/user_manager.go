package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/dao"
	"storefront/internal/models"
)

type UserManager struct {
	coll *mongo.Collection
}

var _ dao.UserRepository = (*UserManager)(nil)

func NewUserManager(database *mongo.Database) *UserManager {
	return &UserManager{coll: database.Collection(usersCollection)}
}

// CreateUser stores u with a lower-cased email. The unique email index turns
// a second registration into dao.ErrDuplicateEmail.
func (m *UserManager) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = models.RoleUser
	}

	doc := userDocument{
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		Age:          u.Age,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
	}
	if u.CartID != "" {
		cart, err := primitive.ObjectIDFromHex(u.CartID)
		if err != nil {
			return models.User{}, fmt.Errorf("carrito %s: %w", u.CartID, dao.ErrNotFound)
		}
		doc.Cart = cart
	}

	res, err := m.coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return models.User{}, fmt.Errorf("%s: %w", u.Email, dao.ErrDuplicateEmail)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("alta de usuario: %w", err)
	}

	u.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return u, nil
}

func (m *UserManager) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var doc userDocument
	err := m.coll.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, fmt.Errorf("usuario %s: %w", email, dao.ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("usuario %s: %w", email, err)
	}
	return doc.toModel(), nil
}
