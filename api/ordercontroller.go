package api

import (
	"errors"
	"net/http"
	"strconv"

	"orderclient/ordering"
	"orderclient/types"

	"github.com/gin-gonic/gin"
)

// RegisterOrderRoutes registers the form and submission endpoints.
func (s *Server) RegisterOrderRoutes(r *gin.Engine) {
	g := r.Group("/api")
	g.GET("/status", s.handleStatus)
	g.PUT("/target", s.handleSetTarget)

	o := g.Group("/order")
	o.PUT("/customer", s.handleSetCustomer)
	o.POST("/functions", s.handleAddFunction)
	o.DELETE("/functions/:index", s.handleRemoveFunction)
	o.POST("/submit", s.handleSubmit)
	o.POST("/cancel", s.handleCancel)
}

// SetCustomerRequest is the body of PUT /api/order/customer
type SetCustomerRequest struct {
	Customer *string `json:"customer" binding:"required"`
}

// AddFunctionRequest is the body of POST /api/order/functions
type AddFunctionRequest struct {
	Function *types.DrawFunction `json:"function" binding:"required"`
}

// SetTargetRequest is the body of PUT /api/target
type SetTargetRequest struct {
	Address string `json:"address" binding:"required"`
}

// SubmitResponse acknowledges an accepted order
type SubmitResponse struct {
	Status  string `json:"status"`
	OrderID string `json:"order_id"`
}

// handleStatus returns the session snapshot
func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Snapshot())
}

// handleSetCustomer updates the customer name
func (s *Server) handleSetCustomer(c *gin.Context) {
	var req SetCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	form := s.session.Form()
	if !form.SetCustomer(*req.Customer) && form.Locked() {
		s.rejectLocked(c)
		return
	}
	c.JSON(http.StatusOK, s.session.Snapshot())
}

// handleAddFunction appends a drawing function
func (s *Server) handleAddFunction(c *gin.Context) {
	var req AddFunctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Function.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown draw function " + req.Function.String()})
		return
	}

	if !s.session.Form().AddFunction(*req.Function) {
		s.rejectLocked(c)
		return
	}
	c.JSON(http.StatusOK, s.session.Snapshot())
}

// handleRemoveFunction deletes the function at :index
func (s *Server) handleRemoveFunction(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be an integer"})
		return
	}

	form := s.session.Form()
	if !form.RemoveFunctionAt(index) {
		if form.Locked() {
			s.rejectLocked(c)
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "no function at index " + c.Param("index")})
		return
	}
	c.JSON(http.StatusOK, s.session.Snapshot())
}

// handleSetTarget changes the plotting service address
func (s *Server) handleSetTarget(c *gin.Context) {
	var req SetTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !s.session.SetTargetAddress(req.Address) {
		c.JSON(http.StatusConflict, gin.H{"error": ordering.ErrBusy.Error()})
		return
	}
	c.JSON(http.StatusOK, s.session.Snapshot())
}

// handleSubmit starts the order and returns without waiting for it
func (s *Server) handleSubmit(c *gin.Context) {
	s.inflight.Add(1)
	done, err := s.session.SubmitAsync(s.base)
	if err != nil {
		s.inflight.Done()
		writeSubmitError(c, err)
		return
	}
	go func() {
		<-done
		s.inflight.Done()
	}()

	c.JSON(http.StatusAccepted, SubmitResponse{Status: "submitted", OrderID: s.session.OrderID()})
}

// handleCancel stops the in-flight order
func (s *Server) handleCancel(c *gin.Context) {
	if !s.session.Cancel() {
		c.JSON(http.StatusConflict, gin.H{"error": "no order in progress"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelling"})
}

func (s *Server) rejectLocked(c *gin.Context) {
	c.JSON(http.StatusConflict, gin.H{"error": "order form is locked while an order is in progress"})
}

func writeSubmitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ordering.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ordering.ErrNotReady):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
