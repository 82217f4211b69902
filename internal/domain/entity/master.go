package entity

import "time"

// Warehouse representa una bodega donde se almacenan insumos y producto terminado.
type Warehouse struct {
	ID          string
	Code        string
	Name        string
	Description string
	Location    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Product representa un producto terminado (referencia de confección).
type Product struct {
	ID          string
	Code        string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
