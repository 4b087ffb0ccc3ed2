package main

import (
	"log"
	"net/http"

	"tourops/src/models"
	"tourops/src/types"
	"tourops/src/utils"

	"github.com/gin-gonic/gin"
)

type bookingURIParams struct {
	ID uint `uri:"id" binding:"required"`
}

// bookingAccessAllowed reports whether the caller may act on a booking
// owned by ownerId: the owner themselves, or a staff role.
func bookingAccessAllowed(ctx *gin.Context, ownerId uint) bool {
	if ctx.GetUint("id") == ownerId {
		return true
	}
	role := ctx.GetString("role")
	return role == "staff" || role == "admin"
}

// loadOwnedBooking fetches the booking and enforces the access check,
// writing the response itself on failure.
func loadOwnedBooking(ctx *gin.Context, id uint) (*models.Booking, bool) {
	booking, err := utils.GetBooking(id)
	if err != nil {
		ctx.JSON(types.HTTPStatusForError(err), gin.H{"error": err.Error()})
		return nil, false
	}
	if !bookingAccessAllowed(ctx, booking.UserID) {
		ctx.Status(http.StatusForbidden)
		return nil, false
	}
	return booking, true
}

func bookingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/bookings", func(ctx *gin.Context) {
			var body types.CreateBookingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error in validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			booking, err := utils.CreateNewBooking(userId, &body)
			if err != nil {
				ctx.JSON(types.HTTPStatusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": booking})
		}).
		GET("/bookings", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			bookings, err := utils.ListBookingsForUser(userId)
			if err != nil {
				ctx.JSON(types.HTTPStatusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": bookings})
		}).
		GET("/bookings/:id", func(ctx *gin.Context) {
			var params bookingURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			booking, ok := loadOwnedBooking(ctx, params.ID)
			if !ok {
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		}).
		PUT("/bookings/:id/travelers", func(ctx *gin.Context) {
			var params bookingURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.EditTravelersRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error in validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if _, ok := loadOwnedBooking(ctx, params.ID); !ok {
				return
			}
			booking, err := utils.EditTravelers(params.ID, &body)
			if err != nil {
				ctx.JSON(types.HTTPStatusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		}).
		DELETE("/bookings/:id/travelers/:travelerId", func(ctx *gin.Context) {
			var params struct {
				ID         uint `uri:"id" binding:"required"`
				TravelerID uint `uri:"travelerId" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if _, ok := loadOwnedBooking(ctx, params.ID); !ok {
				return
			}
			booking, quote, err := utils.RemoveTraveler(params.ID, params.TravelerID)
			if err != nil {
				ctx.JSON(types.HTTPStatusForError(err), gin.H{"error": err.Error()})
				return
			}
			if booking == nil {
				// Last traveler removed; the booking went with them.
				ctx.JSON(http.StatusOK, gin.H{"canceled": true, "refund": quote})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		}).
		PUT("/bookings/:id/quantity", func(ctx *gin.Context) {
			var params bookingURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.ChangeQuantityRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error in validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if _, ok := loadOwnedBooking(ctx, params.ID); !ok {
				return
			}
			booking, err := utils.ChangeQuantity(params.ID, &body)
			if err != nil {
				ctx.JSON(types.HTTPStatusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		}).
		GET("/bookings/:id/cancel/preview", func(ctx *gin.Context) {
			var params bookingURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if _, ok := loadOwnedBooking(ctx, params.ID); !ok {
				return
			}
			quote, err := utils.PreviewCancel(params.ID)
			if err != nil {
				ctx.JSON(types.HTTPStatusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"refund": quote})
		}).
		PUT("/bookings/:id/cancel", func(ctx *gin.Context) {
			var params bookingURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if _, ok := loadOwnedBooking(ctx, params.ID); !ok {
				return
			}
			userId := ctx.GetUint("id")
			quote, err := utils.CancelBooking(params.ID, userId)
			if err != nil {
				ctx.JSON(types.HTTPStatusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"refund": quote})
		})
	return g
}

func staffBookingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		PUT("/bookings/:id/complete", func(ctx *gin.Context) {
			var params bookingURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := utils.CompleteBooking(params.ID); err != nil {
				ctx.JSON(types.HTTPStatusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusOK)
		})
	return g
}
