package handlers

import (
	"errors"
	"strconv"

	"productapi/internal/middleware"
	"productapi/internal/models"
	"productapi/internal/repositories"
	"productapi/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Response messages of the products API.
const (
	MsgNameEmpty       = "El nombre del producto no puede ir vacio"
	MsgNameNotString   = "El nombre del producto debe ser texto"
	MsgNameTooLong     = "El nombre del producto no puede superar 100 caracteres"
	MsgPriceEmpty      = "El precio del producto no puede ir vacio"
	MsgPriceNotNumeric = "El valor no es valido"
	MsgPriceInvalid    = "Precio no valido"
	MsgInvalidID       = "ID no valido"
	MsgNotFound        = "Producto no encontrado"
	MsgListFailed      = "Error al obtener los productos"
	MsgGetFailed       = "Error al obtener el producto"
	MsgCreateFailed    = "Error al crear el producto"
	MsgUpdateFailed    = "Error al actualizar el producto"
	MsgDeleteFailed    = "Error al eliminar el producto"
	MsgInvalidBody     = "Cuerpo de la peticion no valido"
)

// NameMaxLength matches the varchar(100) name column.
const NameMaxLength = 100

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service   *services.ProductService
	validator *middleware.Validator
	log       logrus.FieldLogger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, log logrus.FieldLogger) *ProductHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ProductHandler{
		service:   service,
		validator: middleware.NewValidator(),
		log:       log,
	}
}

// RegisterRoutes binds every product route, with its validation chain, to router.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	validID := h.validator.Rules(
		middleware.Param("id").IsInt(MsgInvalidID),
	)
	validBody := []*middleware.Chain{
		middleware.Body("name").NotEmpty(MsgNameEmpty).IsString(MsgNameNotString).MaxLength(NameMaxLength, MsgNameTooLong),
		middleware.Body("price").NotEmpty(MsgPriceEmpty).IsNumeric(MsgPriceNotNumeric).Positive(MsgPriceInvalid),
	}
	validIDAndBody := h.validator.Rules(append([]*middleware.Chain{
		middleware.Param("id").IsInt(MsgInvalidID),
	}, validBody...)...)

	router.Get("/", h.HandleGetProducts)
	router.Get("/:id", validID, h.HandleGetProductByID)
	router.Post("/", h.validator.Rules(validBody...), h.HandleCreateProduct)
	router.Put("/:id", validIDAndBody, h.HandleUpdateProduct)
	router.Patch("/:id", validID, h.HandleUpdateAvailability)
	router.Delete("/:id", validID, h.HandleDeleteProduct)
}

// HandleGetProducts returns every product.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext())
	if err != nil {
		h.log.WithError(err).Error("error getting all products")
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: MsgListFailed})
	}
	if products == nil {
		products = []models.Product{}
	}
	return c.JSON(products)
}

// HandleGetProductByID returns a single product.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	id, ok := productID(c)
	if !ok {
		return notFound(c)
	}
	product, err := h.service.GetProductByID(c.UserContext(), id)
	if err != nil {
		return h.failure(c, err, id, MsgGetFailed)
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a product and answers 201 with it.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	name, price, err := parseInput(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: MsgInvalidBody})
	}
	product, err := h.service.CreateProduct(c.UserContext(), name, price)
	if err != nil {
		h.log.WithError(err).Error("error creating product")
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: MsgCreateFailed})
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct overwrites name and price.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id, ok := productID(c)
	if !ok {
		return notFound(c)
	}
	name, price, err := parseInput(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: MsgInvalidBody})
	}
	product, err := h.service.UpdateProduct(c.UserContext(), id, name, price)
	if err != nil {
		return h.failure(c, err, id, MsgUpdateFailed)
	}
	return c.JSON(product)
}

// HandleUpdateAvailability toggles the availability flag.
func (h *ProductHandler) HandleUpdateAvailability(c *fiber.Ctx) error {
	id, ok := productID(c)
	if !ok {
		return notFound(c)
	}
	product, err := h.service.ToggleAvailability(c.UserContext(), id)
	if err != nil {
		return h.failure(c, err, id, MsgUpdateFailed)
	}
	return c.JSON(product)
}

// HandleDeleteProduct removes a product and returns what was removed.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, ok := productID(c)
	if !ok {
		return notFound(c)
	}
	product, err := h.service.DeleteProduct(c.UserContext(), id)
	if err != nil {
		return h.failure(c, err, id, MsgDeleteFailed)
	}
	return c.JSON(product)
}

// failure maps a service error to 404 or a logged 500.
func (h *ProductHandler) failure(c *fiber.Ctx, err error, id uint, msg string) error {
	if errors.Is(err, repositories.ErrProductNotFound) {
		return notFound(c)
	}
	h.log.WithError(err).WithFields(logrus.Fields{
		"product_id": id,
		"method":     c.Method(),
	}).Error("product storage error")
	return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: msg})
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{Error: MsgNotFound})
}

// productID parses the already validated id parameter. Negative or
// out-of-range integers cannot match any row and are reported as not found.
func productID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

// parseInput decodes a validated create/update body.
func parseInput(c *fiber.Ctx) (string, float64, error) {
	var input models.ProductInput
	if err := c.App().Config().JSONDecoder(c.Body(), &input); err != nil {
		return "", 0, err
	}
	price, err := input.Price.Float64()
	if err != nil {
		return "", 0, err
	}
	return input.Name, price, nil
}
