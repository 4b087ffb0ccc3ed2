package main

import (
	"log"
	"net/http"

	"tourops/src/types"
	"tourops/src/utils"

	"github.com/gin-gonic/gin"
)

func invoiceHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/invoices/:id", func(ctx *gin.Context) {
			var params struct {
				ID uint `uri:"id" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			invoice, err := utils.GetInvoice(params.ID)
			if err != nil {
				ctx.JSON(types.HTTPStatusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": invoice})
		}).
		GET("/bookings/:id/invoice", func(ctx *gin.Context) {
			var params struct {
				ID uint `uri:"id" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if _, ok := loadOwnedBooking(ctx, params.ID); !ok {
				return
			}
			invoice, err := utils.GetInvoiceForBooking(params.ID)
			if err != nil {
				ctx.JSON(types.HTTPStatusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": invoice})
		})
	return g
}

// staffInvoiceHandlers covers counter settlement: cash or terminal
// payments recorded by staff without going through the gateway.
func staffInvoiceHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		PUT("/invoices/:id/pay", func(ctx *gin.Context) {
			var params struct {
				ID uint `uri:"id" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.PayInvoiceRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error in validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := utils.MarkInvoicePaid(params.ID, body.Method); err != nil {
				ctx.JSON(types.HTTPStatusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusOK)
		})
	return g
}
