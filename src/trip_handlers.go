package main

import (
	"log"
	"net/http"

	"tourops/src/types"
	"tourops/src/utils"

	"github.com/gin-gonic/gin"
)

func routeHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/routes", func(ctx *gin.Context) {
			routes, err := utils.ListRoutes()
			if err != nil {
				ctx.JSON(types.HTTPStatusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": routes})
		}).
		GET("/routes/:id", func(ctx *gin.Context) {
			var params struct {
				ID uint `uri:"id" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			route, err := utils.GetRoute(params.ID)
			if err != nil {
				ctx.JSON(types.HTTPStatusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": route})
		})
	return g
}

func tripHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/trips", func(ctx *gin.Context) {
			var query struct {
				RouteID *uint `form:"route"`
			}
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			trips, err := utils.ListOpenTrips(query.RouteID)
			if err != nil {
				ctx.JSON(types.HTTPStatusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": trips})
		}).
		GET("/trips/:id", func(ctx *gin.Context) {
			var params struct {
				ID uint `uri:"id" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			trip, err := utils.GetTrip(params.ID)
			if err != nil {
				ctx.JSON(types.HTTPStatusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": trip})
		}).
		GET("/trips/:id/seats", func(ctx *gin.Context) {
			var params struct {
				ID uint `uri:"id" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			free, reserved, err := utils.GetTripSeats(params.ID)
			if err != nil {
				ctx.JSON(types.HTTPStatusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"free": free, "reserved": reserved})
		})
	return g
}

// staffTripHandlers carries the back office surface: route and departure
// management plus the passenger manifest.
func staffTripHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/routes", func(ctx *gin.Context) {
			var body types.CreateRouteRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error in validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			id, err := utils.CreateNewRoute(&body)
			if err != nil {
				ctx.JSON(types.HTTPStatusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"id": id})
		}).
		POST("/trips", func(ctx *gin.Context) {
			var body types.CreateTripRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error in validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			id, err := utils.CreateNewTrip(userId, &body)
			if err != nil {
				ctx.JSON(types.HTTPStatusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"id": id})
		}).
		GET("/trips/:id/bookings", func(ctx *gin.Context) {
			var params struct {
				ID uint `uri:"id" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			bookings, err := utils.ListBookingsForTrip(params.ID)
			if err != nil {
				ctx.JSON(types.HTTPStatusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": bookings})
		}).
		PUT("/trips/:id/cancel", func(ctx *gin.Context) {
			var params struct {
				ID uint `uri:"id" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.CancelTripRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := utils.CancelTrip(params.ID, body.Reason); err != nil {
				ctx.JSON(types.HTTPStatusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusOK)
		})
	return g
}
