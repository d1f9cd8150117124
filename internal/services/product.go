package services

import (
	"event-registration-platform/internal/models"
)

// ProductRepository interface for product data operations
type ProductRepository interface {
	Create(req *models.ProductCreateRequest) (*models.Product, error)
	GetByID(id int) (*models.Product, error)
	ListByEvent(eventID int, includeArchived bool) ([]*models.Product, error)
	Update(id int, req *models.ProductUpdateRequest) (*models.Product, error)
	Archive(id int) error
	AddVariant(productID int, req *models.ProductVariantCreateRequest) (*models.ProductVariant, error)
}

// ProductService handles product-related business logic
type ProductService struct {
	productRepo ProductRepository
	eventRepo   EventRepository
}

// NewProductService creates a new product service
func NewProductService(productRepo ProductRepository, eventRepo EventRepository) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		eventRepo:   eventRepo,
	}
}

// CreateProduct creates a product for an event the actor manages
func (s *ProductService) CreateProduct(actor *models.User, req *models.ProductCreateRequest) (*models.Product, error) {
	event, err := s.eventRepo.GetByID(req.EventID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageEvent(event) {
		return nil, models.ErrForbidden
	}

	return s.productRepo.Create(req)
}

// GetProduct retrieves a product with its variants
func (s *ProductService) GetProduct(id int) (*models.Product, error) {
	return s.productRepo.GetByID(id)
}

// ListProducts lists the products of an event. Organizers also see archived
// products.
func (s *ProductService) ListProducts(actor *models.User, eventID int) ([]*models.Product, error) {
	event, err := s.eventRepo.GetByID(eventID)
	if err != nil {
		return nil, err
	}

	includeArchived := actor != nil && actor.CanManageEvent(event)
	return s.productRepo.ListByEvent(eventID, includeArchived)
}

// UpdateProduct updates a product on an event the actor manages
func (s *ProductService) UpdateProduct(actor *models.User, id int, req *models.ProductUpdateRequest) (*models.Product, error) {
	if err := s.authorizeProduct(actor, id); err != nil {
		return nil, err
	}
	return s.productRepo.Update(id, req)
}

// ArchiveProduct retires a product without losing its order history
func (s *ProductService) ArchiveProduct(actor *models.User, id int) error {
	if err := s.authorizeProduct(actor, id); err != nil {
		return err
	}
	return s.productRepo.Archive(id)
}

// AddVariant adds a variant to a product the actor manages
func (s *ProductService) AddVariant(actor *models.User, productID int, req *models.ProductVariantCreateRequest) (*models.ProductVariant, error) {
	if err := s.authorizeProduct(actor, productID); err != nil {
		return nil, err
	}
	return s.productRepo.AddVariant(productID, req)
}

func (s *ProductService) authorizeProduct(actor *models.User, productID int) error {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return err
	}

	event, err := s.eventRepo.GetByID(product.EventID)
	if err != nil {
		return err
	}
	if !actor.CanManageEvent(event) {
		return models.ErrForbidden
	}

	return nil
}
