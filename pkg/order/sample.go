package order

// SampleOrders returns the demo orders used to seed an empty store.
func SampleOrders() []NewOrder {
	home := Address{
		Street:  "123 Main St",
		City:    "San Francisco",
		State:   "CA",
		ZipCode: "94102",
		Country: "USA",
	}
	office := home

	return []NewOrder{
		{
			UserID: 1,
			Items: []Item{
				{ProductID: "PROD-001", ProductName: "Laptop", Quantity: 1, Price: 999.99},
			},
			TotalAmount:     999.99,
			Status:          StatusDelivered,
			ShippingAddress: &home,
		},
		{
			UserID: 1,
			Items: []Item{
				{ProductID: "PROD-002", ProductName: "Mouse", Quantity: 2, Price: 29.99},
				{ProductID: "PROD-003", ProductName: "Keyboard", Quantity: 1, Price: 79.99},
			},
			TotalAmount:     139.97,
			Status:          StatusProcessing,
			ShippingAddress: &office,
		},
	}
}
