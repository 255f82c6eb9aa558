package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type ProductUsecase struct {
	productRepo repo.ProductRepository
	tx          repo.TransactionManager
	logger      *zap.Logger
}

func NewProductUsecase(productRepo repo.ProductRepository, tx repo.TransactionManager, logger *zap.Logger) *ProductUsecase {
	return &ProductUsecase{
		productRepo: productRepo,
		tx:          tx,
		logger:      logger,
	}
}

// GET /products input
type ListProductsInput struct {
	Page     int
	Limit    int
	Q        string
	Category string
	Sort     string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}
	switch in.Sort {
	case "", "new", "name", "price_asc", "price_desc":
	default:
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid sort")
	}

	items, total, err := u.productRepo.ListPublic(ctx, repo.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        strings.TrimSpace(in.Q),
		Category: strings.TrimSpace(in.Category),
		Sort:     in.Sort,
	})
	if err != nil {
		u.logger.Error("list products", zap.Error(err))
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ProductListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

// GetProductDetail returns active products only; inactive ones look missing.
func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID string) (model.Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		u.logger.Error("find product", zap.String("product_id", productID), zap.Error(err))
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if !p.IsActive {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return p, nil
}

type AdminProductInput struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image"`
	Sizes        []string        `json:"sizes"`
	Applications []string        `json:"applications"`
	Features     []string        `json:"features"`
	IsActive     bool            `json:"is_active"`
}

func (in AdminProductInput) toModel(id string) model.Product {
	return model.Product{
		ID:           strings.TrimSpace(id),
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		Category:     strings.TrimSpace(in.Category),
		Price:        in.Price,
		Image:        in.Image,
		Sizes:        in.Sizes,
		Applications: in.Applications,
		Features:     in.Features,
		IsActive:     in.IsActive,
	}
}

// AdminCreateProduct fails with 409 when the id is taken.
func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID int64, in AdminProductInput) (model.Product, error) {
	return u.adminSave(ctx, adminUserID, in.toModel(in.ID), false)
}

// AdminUpdateProduct fails with 404 when the id is unknown.
func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID int64, productID string, in AdminProductInput) (model.Product, error) {
	return u.adminSave(ctx, adminUserID, in.toModel(productID), true)
}

func (u *ProductUsecase) adminSave(ctx context.Context, adminUserID int64, p model.Product, mustExist bool) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := p.Validate(); err != nil {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var saved model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, p.ID)
		exists := err == nil
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if mustExist && !exists {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if !mustExist && exists {
			return NewHTTPError(http.StatusConflict, "product id already exists")
		}

		saved, err = r.Products().Upsert(ctx, p)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		beforeJSON := ""
		if exists {
			beforeJSON = productJSON(before)
		}
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionUpsertProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   saved.ID,
			BeforeJSON:   beforeJSON,
			AfterJSON:    productJSON(saved),
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
	if err != nil {
		if _, ok := AsHTTPError(err); !ok {
			u.logger.Error("save product", zap.String("product_id", p.ID), zap.Error(err))
			return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return model.Product{}, err
	}

	u.logger.Info("product saved", zap.String("product_id", saved.ID), zap.Int64("admin_id", adminUserID))
	return saved, nil
}

func productJSON(p model.Product) string {
	b, err := json.Marshal(struct {
		Name     string          `json:"name"`
		Category string          `json:"category"`
		Price    decimal.Decimal `json:"price"`
		IsActive bool            `json:"is_active"`
	}{p.Name, p.Category, p.Price, p.IsActive})
	if err != nil {
		return ""
	}
	return string(b)
}
