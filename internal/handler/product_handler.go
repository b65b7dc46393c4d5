package handler

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"ortus/internal/domain/model"
	"ortus/internal/usecase"

	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
)

// CatalogService は /api/products が使うusecase
type CatalogService interface {
	List(ctx context.Context, category string) ([]model.Product, error)
	Get(ctx context.Context, productID string) (model.Product, error)
	Create(ctx context.Context, actor usecase.Actor, in usecase.CreateProductInput) (model.Product, error)
	Update(ctx context.Context, actor usecase.Actor, productID string, in usecase.UpdateProductInput) (model.Product, error)
	Delete(ctx context.Context, actor usecase.Actor, productID string) error
}

// /api/products の公開API + 管理API
type ProductHandler struct {
	uc CatalogService
}

// DI
func NewProductHandler(uc CatalogService) *ProductHandler {
	return &ProductHandler{uc: uc}
}

func (h *ProductHandler) RegisterRoutes(api *echo.Group, g Guards) {
	products := api.Group("/products")

	products.GET("", h.list)
	products.GET("/:id", h.detail)

	products.POST("", h.create, g.admin()...)
	products.PUT("/:id", h.update, g.admin()...)
	products.DELETE("/:id", h.delete, g.admin()...)
}

func (h *ProductHandler) list(c echo.Context) error {
	items, err := h.uc.List(c.Request().Context(), c.QueryParam("category"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ProductHandler) detail(c echo.Context) error {
	p, err := h.uc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) create(c echo.Context) error {
	form, err := readProductForm(c)
	if err != nil {
		return err
	}

	in := usecase.CreateProductInput{Images: form.images}
	if form.name != nil {
		in.Name = *form.name
	}
	if form.description != nil {
		in.Description = *form.description
	}
	if form.category != nil {
		in.Category = *form.category
	}
	if form.price != nil {
		in.Price = *form.price
	}
	if form.sizes != nil {
		in.Sizes = *form.sizes
	}

	p, err := h.uc.Create(c.Request().Context(), actorFrom(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *ProductHandler) update(c echo.Context) error {
	form, err := readProductForm(c)
	if err != nil {
		return err
	}

	p, err := h.uc.Update(c.Request().Context(), actorFrom(c), c.Param("id"), usecase.UpdateProductInput{
		Name:        form.name,
		Description: form.description,
		Category:    form.category,
		Price:       form.price,
		Sizes:       form.sizes,
		IsActive:    form.isActive,
		Images:      form.images,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) delete(c echo.Context) error {
	if err := h.uc.Delete(c.Request().Context(), actorFrom(c), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "product deleted"})
}

// 送られてきた項目だけ非nilにする
type productForm struct {
	name        *string
	description *string
	category    *string
	price       *string
	sizes       *[]usecase.SizeInput
	isActive    *bool
	images      []model.ImageFile
}

// multipart/form-data（またはurlencoded）を読む。sizesはJSON文字列、画像は "images"。
func readProductForm(c echo.Context) (productForm, error) {
	var out productForm

	params, err := c.FormParams()
	if err != nil {
		return out, badRequest("invalid form data")
	}

	field := func(key string) *string {
		vals, ok := params[key]
		if !ok || len(vals) == 0 {
			return nil
		}
		v := vals[0]
		return &v
	}
	out.name = field("name")
	out.description = field("description")
	out.category = field("category")
	out.price = field("price")

	if raw := field("sizes"); raw != nil && strings.TrimSpace(*raw) != "" {
		var sizes []usecase.SizeInput
		if err := jsoniter.ConfigCompatibleWithStandardLibrary.UnmarshalFromString(*raw, &sizes); err != nil {
			return out, badRequest("invalid sizes format")
		}
		out.sizes = &sizes
	}
	if raw := field("isActive"); raw != nil {
		b, err := cast.ToBoolE(strings.TrimSpace(*raw))
		if err != nil {
			return out, badRequest("isActive must be a boolean")
		}
		out.isActive = &b
	}

	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		mf, err := c.MultipartForm()
		if err != nil {
			return out, badRequest("invalid form data")
		}
		for _, fh := range mf.File["images"] {
			out.images = append(out.images, imageFile(fh))
		}
	}
	return out, nil
}

func imageFile(fh *multipart.FileHeader) model.ImageFile {
	return model.ImageFile{
		Filename: fh.Filename,
		Size:     fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}
