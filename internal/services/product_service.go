package services

import (
	"context"
	"fmt"

	"productapi/internal/models"
	"productapi/internal/repositories"

	"github.com/sirupsen/logrus"
)

// Product event names published after a successful mutation.
const (
	EventProductCreated             = "product.created"
	EventProductUpdated             = "product.updated"
	EventProductAvailabilityToggled = "product.availability_toggled"
	EventProductDeleted             = "product.deleted"
)

// EventPublisher receives product change notifications.
type EventPublisher interface {
	PublishProductEvent(ctx context.Context, event string, product models.Product) error
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo      repositories.ProductRepository
	publisher EventPublisher
	log       logrus.FieldLogger
}

// NewProductService creates a new ProductService. publisher may be nil.
func NewProductService(repo repositories.ProductRepository, publisher EventPublisher, log logrus.FieldLogger) *ProductService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ProductService{
		repo:      repo,
		publisher: publisher,
		log:       log,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll(ctx)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id uint) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateProduct stores a new product. New products are always available.
func (s *ProductService) CreateProduct(ctx context.Context, name string, price float64) (*models.Product, error) {
	product := &models.Product{
		Name:         name,
		Price:        price,
		Availability: true,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, EventProductCreated, *product)
	return product, nil
}

// UpdateProduct overwrites name and price of an existing product.
func (s *ProductService) UpdateProduct(ctx context.Context, id uint, name string, price float64) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Name = name
	product.Price = price
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, EventProductUpdated, *product)
	return product, nil
}

// ToggleAvailability flips the availability flag of a product.
// The read and the write are separate statements; concurrent toggles may race.
func (s *ProductService) ToggleAvailability(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Availability = !product.Availability
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, EventProductAvailabilityToggled, *product)
	return product, nil
}

// DeleteProduct removes a product and returns the removed record.
func (s *ProductService) DeleteProduct(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	s.publish(ctx, EventProductDeleted, *product)
	return product, nil
}

// publish never fails the request; a lost event is only logged.
func (s *ProductService) publish(ctx context.Context, event string, product models.Product) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishProductEvent(ctx, event, product); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"event":      event,
			"product_id": product.ID,
		}).Warn("failed to publish product event")
	}
}
