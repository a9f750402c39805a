package menu

import "bistro-pos/internal/money"

type Item struct {
	ID          int64       `json:"id"`
	CategoryID  *int64      `json:"category_id,omitempty"`
	Name        string      `json:"name"`
	Description *string     `json:"description,omitempty"`
	Price       money.Cents `json:"price"`
	Available   bool        `json:"available"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
