package http

import (
	"net/http"

	"github.com/DRSN-tech/admin-backend/internal/usecase"
	"github.com/DRSN-tech/admin-backend/pkg/logger"
)

type CustomerHandler struct {
	customerUC usecase.CustomerUC
	logger     logger.Logger
}

func NewCustomerHandler(customerUC usecase.CustomerUC, logger logger.Logger) *CustomerHandler {
	return &CustomerHandler{customerUC: customerUC, logger: logger}
}

func (c *CustomerHandler) list(w http.ResponseWriter, r *http.Request) {
	res, err := c.customerUC.ListCustomers(r.Context(), parsePage(r, 0))
	if err != nil {
		WriteError(w, err)
		return
	}

	out := make([]customerDTO, 0, len(res.Customers))
	for i := range res.Customers {
		out = append(out, toCustomerDTO(&res.Customers[i]))
	}
	WritePage(w, out, res.Pagination)
}

func (c *CustomerHandler) show(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	res, err := c.customerUC.GetCustomer(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, "", toCustomerDetailsDTO(res))
}

func (c *CustomerHandler) create(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	customer, err := c.customerUC.CreateCustomer(r.Context(), &usecase.CreateCustomerReq{
		Email:   deref(req.Email),
		Name:    deref(req.Name),
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		c.logger.Warnf("create customer: %v", err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, "Customer created successfully", toCustomerDTO(customer))
}

func (c *CustomerHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	var req customerRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	customer, err := c.customerUC.UpdateCustomer(r.Context(), &usecase.UpdateCustomerReq{
		ID:      id,
		Email:   req.Email,
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		c.logger.Warnf("update customer %d: %v", id, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, "Customer updated successfully", toCustomerDTO(customer))
}

func (c *CustomerHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := c.customerUC.DeleteCustomer(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, "Customer deleted successfully", nil)
}
