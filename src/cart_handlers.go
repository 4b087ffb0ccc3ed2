package main

import (
	"log"
	"net/http"

	"tourops/src/types"
	"tourops/src/utils"

	"github.com/gin-gonic/gin"
)

type checkoutCartRequestBody struct {
	Items []struct {
		CartItemID uint                  `json:"cart_item" binding:"required"`
		NoAdults   uint                  `json:"no_adults" binding:"required,gt=0"`
		NoChildren uint                  `json:"no_children"`
		Travelers  []types.TravelerInput `json:"travelers" binding:"required,min=1,dive"`
	} `json:"items" binding:"required,min=1,dive"`
}

func cartHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/cart", func(ctx *gin.Context) {
			var body types.AddCartItemRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error in validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			item, err := utils.AddCartItem(userId, &body)
			if err != nil {
				ctx.JSON(types.HTTPStatusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": item})
		}).
		GET("/cart", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			items, err := utils.ListCartItems(userId)
			if err != nil {
				ctx.JSON(types.HTTPStatusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": items})
		}).
		DELETE("/cart/:id", func(ctx *gin.Context) {
			var params struct {
				ID uint `uri:"id" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			if err := utils.RemoveCartItem(userId, params.ID); err != nil {
				ctx.JSON(types.HTTPStatusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		POST("/cart/checkout", func(ctx *gin.Context) {
			var body checkoutCartRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error in validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			inputs := make([]utils.CheckoutCartItemInput, 0, len(body.Items))
			for _, item := range body.Items {
				inputs = append(inputs, utils.CheckoutCartItemInput{
					CartItemID: item.CartItemID,
					NoAdults:   item.NoAdults,
					NoChildren: item.NoChildren,
					Travelers:  item.Travelers,
				})
			}
			userId := ctx.GetUint("id")
			bookings, err := utils.CheckoutCart(userId, inputs)
			if err != nil {
				ctx.JSON(types.HTTPStatusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": bookings})
		})
	return g
}
