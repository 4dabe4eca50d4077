package http

import (
	"net/http"

	"github.com/DRSN-tech/admin-backend/internal/cfg"
	"github.com/DRSN-tech/admin-backend/internal/usecase"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/DRSN-tech/admin-backend/pkg/logger"
)

type ProductHandler struct {
	productUC usecase.ProductUC
	reportUC  usecase.ReportUC
	cfg       *cfg.MinIOCfg
	logger    logger.Logger
}

func NewProductHandler(productUC usecase.ProductUC, reportUC usecase.ReportUC, cfg *cfg.MinIOCfg, logger logger.Logger) *ProductHandler {
	return &ProductHandler{productUC: productUC, reportUC: reportUC, cfg: cfg, logger: logger}
}

func (p *ProductHandler) list(w http.ResponseWriter, r *http.Request) {
	res, err := p.productUC.ListProducts(r.Context(), parsePage(r, 0))
	if err != nil {
		WriteError(w, err)
		return
	}

	out := make([]productDTO, 0, len(res.Products))
	for i := range res.Products {
		out = append(out, toProductDTO(&res.Products[i]))
	}
	WritePage(w, out, res.Pagination)
}

func (p *ProductHandler) show(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	res, err := p.productUC.GetProduct(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, "", toProductDetailsDTO(res))
}

func (p *ProductHandler) create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	product, err := p.productUC.CreateProduct(r.Context(), &usecase.CreateProductReq{
		Name:        deref(req.Name),
		Description: deref(req.Description),
		Price:       deref(req.Price),
		Stock:       deref(req.Stock),
		CategoryIDs: deref(req.CategoryIDs),
		Images:      toImageInputs(deref(req.Images)),
	})
	if err != nil {
		p.logger.Warnf("create product: %v", err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, "Product created successfully", toProductDTO(product))
}

func (p *ProductHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.Stock != nil {
		WriteError(w, e.NewValidationError("stock", "can only change through purchases"))
		return
	}

	upd := &usecase.UpdateProductReq{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		CategoryIDs: req.CategoryIDs,
	}
	if req.Images != nil {
		images := toImageInputs(*req.Images)
		upd.Images = &images
	}

	product, err := p.productUC.UpdateProduct(r.Context(), upd)
	if err != nil {
		p.logger.Warnf("update product %d: %v", id, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, "Product updated successfully", toProductDTO(product))
}

func (p *ProductHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := p.productUC.DeleteProduct(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, "Product deleted successfully", nil)
}

// uploadImages принимает multipart/form-data: файлы в поле images, подписи в полях captions.
func (p *ProductHandler) uploadImages(w http.ResponseWriter, r *http.Request) {
	const maxMemory = 32 << 20

	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	maxTotal := p.cfg.MaxImageSize*int64(p.cfg.UploadImagesLimit) + maxMemory
	r.Body = http.MaxBytesReader(w, r.Body, maxTotal)

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), r.Header.Get("Content-Type"))
		WriteError(w, e.Wrap(err.Error(), e.ErrExpectedMultipart))
		return
	}

	files, err := parseImages(
		r.MultipartForm.File["images"],
		r.MultipartForm.Value["captions"],
		p.cfg.UploadImagesLimit,
		p.cfg.MaxImageSize,
	)
	if err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	images, err := p.productUC.UploadImages(r.Context(), id, files)
	if err != nil {
		p.logger.Warnf("upload images for product %d: %v", id, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, "Images uploaded successfully", toImageDTOs(images))
}

func (p *ProductHandler) mostPurchasedByCategory(w http.ResponseWriter, r *http.Request) {
	groups, err := p.reportUC.MostPurchasedByCategory(r.Context(), queryInt(r, "limit", 0))
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, "", toCategoryProductsDTOs(groups, false))
}

func (p *ProductHandler) topRevenueByCategory(w http.ResponseWriter, r *http.Request) {
	groups, err := p.reportUC.TopRevenueByCategory(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, "", toCategoryProductsDTOs(groups, true))
}
