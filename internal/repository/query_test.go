package repository

import (
	model "campus-market/internal/models"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildProductQuery(t *testing.T) {
	tests := []struct {
		name      string
		filter    model.ProductFilter
		wantWhere string
		wantArgs  []any
	}{
		{
			name:      "no_filter",
			filter:    model.ProductFilter{},
			wantWhere: "",
			wantArgs:  nil,
		},
		{
			name:      "category",
			filter:    model.ProductFilter{Category: "Cycles"},
			wantWhere: " WHERE category = $1",
			wantArgs:  []any{"Cycles"},
		},
		{
			name:      "coupon_mess_meal",
			filter:    model.ProductFilter{IsCoupon: boolPtr(true), MessName: "SGR", MealType: "Dinner"},
			wantWhere: " WHERE is_coupon = $1 AND mess_name = $2 AND meal_type = $3",
			wantArgs:  []any{true, "SGR", "Dinner"},
		},
		{
			name:      "location_sold_search",
			filter:    model.ProductFilter{Location: "Hostel", IsSold: boolPtr(false), Search: "50%_off"},
			wantWhere: " WHERE location = $1 AND is_sold = $2 AND (title ILIKE $3 OR description ILIKE $3)",
			wantArgs:  []any{"Hostel", false, `%50\%\_off%`},
		},
		{
			name:      "hide_banned",
			filter:    model.ProductFilter{Category: "Books", IsBanned: boolPtr(false)},
			wantWhere: " WHERE category = $1 AND is_banned = $2",
			wantArgs:  []any{"Books", false},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			query, args := buildProductQuery(tc.filter)
			require.True(t, strings.HasPrefix(query, "SELECT "+productColumns+" FROM products"))
			require.True(t, strings.HasSuffix(query, " ORDER BY created_at DESC"))

			where := strings.TrimSuffix(strings.TrimPrefix(query, "SELECT "+productColumns+" FROM products"), " ORDER BY created_at DESC")
			require.Equal(t, tc.wantWhere, where)
			require.Equal(t, tc.wantArgs, args)
		})
	}
}

func TestBuildProductFilter(t *testing.T) {
	require.Equal(t, bson.M{}, buildProductFilter(model.ProductFilter{}))

	got := buildProductFilter(model.ProductFilter{
		Category: "Cycles",
		IsSold:   boolPtr(false),
		Search:   "hero.cycle",
	})

	pattern := bson.M{"$regex": `hero\.cycle`, "$options": "i"}
	require.Equal(t, bson.M{
		"category": "Cycles",
		"is_sold":  false,
		"$or": bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		},
	}, got)

	require.Equal(t, bson.M{"is_banned": bson.M{"$ne": true}}, buildProductFilter(model.ProductFilter{IsBanned: boolPtr(false)}))
	require.Equal(t, bson.M{"is_banned": true}, buildProductFilter(model.ProductFilter{IsBanned: boolPtr(true)}))
}
