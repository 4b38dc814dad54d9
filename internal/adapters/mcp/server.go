// Package mcp exposes the tare memory as Model Context Protocol tools, so an
// assistant can look up and confirm tares on the operator's behalf. Served
// over stdio by `conferente mcp`.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/corey/conferente/internal/domain/tare"
)

// Service is what the tools need. mcp-go dispatches handlers on their own
// goroutines, so implementations must serialize engine access themselves.
type Service interface {
	ConfirmTare(supplier, product string, tareKg float64)
	PredictLastProduct(supplier string) (tare.Prediction, bool)
	PredictTareForPair(supplier, product string) (float64, bool)
	CheckOtherSupplierTare(supplier, product string) (*tare.Warning, bool)
	Suggest(supplier, product string, currentTare float64) tare.Suggestion
	KnownSuppliers() []string
	KnownProducts() []string
}

// NewServer creates an MCP server with all conferente tools registered.
func NewServer(svc Service, version string) *server.MCPServer {
	if version == "" {
		version = "dev"
	}
	s := server.NewMCPServer(
		"conferente",
		version,
		server.WithToolCapabilities(false),
	)

	registerPredictLastProduct(s, svc)
	registerPredictTare(s, svc)
	registerCheckConflict(s, svc)
	registerSuggestTare(s, svc)
	registerConfirmTare(s, svc)
	registerKnownSuppliers(s, svc)
	registerKnownProducts(s, svc)
	return s
}

// Serve runs the server on stdin/stdout until the input closes.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func registerPredictLastProduct(s *server.MCPServer, svc Service) {
	tool := mcp.NewTool("predict_last_product",
		mcp.WithDescription("Return the product most recently weighed for a supplier, with its learned tare in kg."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("supplier", mcp.Required(), mcp.Description("Supplier name as typed by the operator")),
	)
	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		supplier, err := requireName(req, "supplier")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		p, ok := svc.PredictLastProduct(supplier)
		return jsonResult(struct {
			Found   bool    `json:"found"`
			Product string  `json:"product,omitempty"`
			Tare    float64 `json:"tare,omitempty"`
		}{ok, p.Product, p.Tare})
	})
}

func registerPredictTare(s *server.MCPServer, svc Service) {
	tool := mcp.NewTool("predict_tare",
		mcp.WithDescription("Return the learned tare in kg for an exact supplier and product pair."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("supplier", mcp.Required(), mcp.Description("Supplier name")),
		mcp.WithString("product", mcp.Required(), mcp.Description("Product name")),
	)
	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		supplier, product, err := requirePair(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		t, ok := svc.PredictTareForPair(supplier, product)
		return jsonResult(struct {
			Found bool    `json:"found"`
			Tare  float64 `json:"tare,omitempty"`
		}{ok, t})
	})
}

func registerCheckConflict(s *server.MCPServer, svc Service) {
	tool := mcp.NewTool("check_conflict",
		mcp.WithDescription("Check whether another supplier uses a different tare for the same product. "+
			"Returns the most used alternative and a message for the operator."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("supplier", mcp.Required(), mcp.Description("Current supplier")),
		mcp.WithString("product", mcp.Required(), mcp.Description("Product name")),
	)
	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		supplier, product, err := requirePair(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		w, ok := svc.CheckOtherSupplierTare(supplier, product)
		return jsonResult(struct {
			Found   bool          `json:"found"`
			Warning *tare.Warning `json:"warning,omitempty"`
		}{ok, w})
	})
}

func registerSuggestTare(s *server.MCPServer, svc Service) {
	tool := mcp.NewTool("suggest_tare",
		mcp.WithDescription("Decide what to do with the tare field: apply a learned tare, warn about another supplier's, or leave it."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("supplier", mcp.Required(), mcp.Description("Supplier name")),
		mcp.WithString("product", mcp.Required(), mcp.Description("Product name")),
		mcp.WithNumber("current_tare", mcp.Description("Tare in kg currently in the field (default 0)")),
	)
	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		supplier, product, err := requirePair(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		current := 0.0
		if v, err := req.RequireFloat("current_tare"); err == nil {
			current = v
		}
		return jsonResult(svc.Suggest(supplier, product, current))
	})
}

func registerConfirmTare(s *server.MCPServer, svc Service) {
	tool := mcp.NewTool("confirm_tare",
		mcp.WithDescription("Store a tare in kg as the default for a supplier and product pair."),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("supplier", mcp.Required(), mcp.Description("Supplier name")),
		mcp.WithString("product", mcp.Required(), mcp.Description("Product name")),
		mcp.WithNumber("tare", mcp.Required(), mcp.Description("Tare in kg, e.g. 0.15 for 150 g")),
	)
	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		supplier, product, err := requirePair(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		t, err := req.RequireFloat("tare")
		if err != nil {
			return mcp.NewToolResultError("tare is required"), nil
		}
		if t < 0 {
			return mcp.NewToolResultError("tare must not be negative"), nil
		}
		svc.ConfirmTare(supplier, product, t)
		return mcp.NewToolResultText(fmt.Sprintf("Tara de %.0fg confirmada como padrão para %s / %s", t*1000, supplier, product)), nil
	})
}

func registerKnownSuppliers(s *server.MCPServer, svc Service) {
	tool := mcp.NewTool("known_suppliers",
		mcp.WithDescription("List every supplier with learned tares, sorted."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(svc.KnownSuppliers())
	})
}

func registerKnownProducts(s *server.MCPServer, svc Service) {
	tool := mcp.NewTool("known_products",
		mcp.WithDescription("List every product name seen under any supplier, sorted."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(svc.KnownProducts())
	})
}

func requireName(req mcp.CallToolRequest, key string) (string, error) {
	v, err := req.RequireString(key)
	if err != nil || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

func requirePair(req mcp.CallToolRequest) (string, string, error) {
	supplier, err := requireName(req, "supplier")
	if err != nil {
		return "", "", err
	}
	product, err := requireName(req, "product")
	if err != nil {
		return "", "", err
	}
	return supplier, product, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
