// Package seeder populates the business tables with deterministic demo data
// for local development.
package seeder

import (
	"fmt"
	"math/rand"
	"time"
)

type Product struct {
	ID    string
	Name  string
	Price float64
	Stock int
}

type Order struct {
	ID             string
	CustomerName   string
	Status         string
	TrackingNumber string
	CreatedAt      string
}

type Return struct {
	ID        string
	OrderID   string
	Status    string
	Reason    string
	CreatedAt string
}

type Dataset struct {
	Products []Product
	Orders   []Order
	Returns  []Return
}

var (
	productNames = []string{
		"Laptop", "Wireless Mouse", "Mechanical Keyboard", "USB-C Hub",
		"Noise Cancelling Headphones", "Webcam", "Monitor Stand", "Desk Lamp",
		"External SSD", "Phone Charger",
	}
	customerNames = []string{
		"Alice Martin", "Bob Chen", "Carla Diaz", "Dan Okafor",
		"Elena Petrova", "Farid Hassan", "Grace Kim", "Hugo Lindqvist",
	}
	orderStatuses  = []string{"processing", "shipped", "delivered", "cancelled"}
	returnStatuses = []string{"requested", "approved", "received", "refunded"}
	returnReasons  = []string{"defective", "wrong item", "no longer needed", "arrived late"}
)

type Generator struct {
	rng  *rand.Rand
	base time.Time
}

// NewGenerator builds a generator that yields the same dataset for the same
// seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		rng:  rand.New(rand.NewSource(seed)),
		base: time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC),
	}
}

func (g *Generator) Generate(orderCount int) Dataset {
	if orderCount <= 0 {
		orderCount = 20
	}

	dataset := Dataset{}
	for i, name := range productNames {
		dataset.Products = append(dataset.Products, Product{
			ID:    fmt.Sprintf("P%03d", i+1),
			Name:  name,
			Price: float64(g.rng.Intn(95000)+500) / 100,
			Stock: g.rng.Intn(50),
		})
	}

	for i := 0; i < orderCount; i++ {
		status := orderStatuses[g.rng.Intn(len(orderStatuses))]
		tracking := ""
		if status == "shipped" || status == "delivered" {
			tracking = fmt.Sprintf("TRK%08d", g.rng.Intn(100000000))
		}
		createdAt := g.base.Add(time.Duration(i) * 7 * time.Hour)
		dataset.Orders = append(dataset.Orders, Order{
			ID:             fmt.Sprintf("O%03d", i+1),
			CustomerName:   customerNames[g.rng.Intn(len(customerNames))],
			Status:         status,
			TrackingNumber: tracking,
			CreatedAt:      createdAt.Format("2006-01-02 15:04:05"),
		})
	}

	returnIndex := 0
	for _, order := range dataset.Orders {
		if order.Status != "delivered" || g.rng.Intn(4) != 0 {
			continue
		}
		returnIndex++
		dataset.Returns = append(dataset.Returns, Return{
			ID:        fmt.Sprintf("R%03d", returnIndex),
			OrderID:   order.ID,
			Status:    returnStatuses[g.rng.Intn(len(returnStatuses))],
			Reason:    returnReasons[g.rng.Intn(len(returnReasons))],
			CreatedAt: order.CreatedAt,
		})
	}

	return dataset
}
