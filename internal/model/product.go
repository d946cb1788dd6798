package model

import "time"

type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	InStock     bool      `json:"inStock"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateProductRequest struct {
	Name        string   `json:"name" binding:"required,min=2,max=100"`
	Description string   `json:"description" binding:"required,min=10"`
	Price       *float64 `json:"price" binding:"required,min=0"`
	Category    string   `json:"category" binding:"required"`
	InStock     *bool    `json:"inStock"`
}

// UpdateProductRequest is a partial update; nil fields are left untouched.
type UpdateProductRequest struct {
	Name        *string  `json:"name" binding:"omitempty,min=2,max=100"`
	Description *string  `json:"description" binding:"omitempty,min=10"`
	Price       *float64 `json:"price" binding:"omitempty,min=0"`
	Category    *string  `json:"category" binding:"omitempty,min=1"`
	InStock     *bool    `json:"inStock"`
}

func (r UpdateProductRequest) IsEmpty() bool {
	return r.Name == nil && r.Description == nil && r.Price == nil && r.Category == nil && r.InStock == nil
}

// ProductFilter mirrors the list query string. Nil fields do not constrain the result.
type ProductFilter struct {
	Category *string
	InStock  *bool
	MinPrice *float64
	MaxPrice *float64
}
