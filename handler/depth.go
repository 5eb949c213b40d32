package handler

import (
	"michaelyusak/go-depth-relay.git/service"

	hHelper "github.com/michaelyusak/go-helper/helper"

	"github.com/gin-gonic/gin"
)

type Depth struct {
	depthService service.Depth
}

func NewDepth(depthService service.Depth) *Depth {
	return &Depth{
		depthService: depthService,
	}
}

func (h *Depth) Summary(ctx *gin.Context) {
	ctx.Header("Content-Type", "application/json")

	res, err := h.depthService.Summary(ctx.Request.Context())
	if err != nil {
		ctx.Error(err)
		return
	}

	hHelper.ResponseOK(ctx, res)
}
