package seed

import (
	"time"

	"github.com/marshallshelly/pebble-catalog/internal/catalog"
	"github.com/marshallshelly/pebble-catalog/pkg/schema"
	"github.com/shopspring/decimal"
)

// Dataset is a full set of seed rows with explicit ids. User passwords are
// plaintext here and hashed by the loader.
type Dataset struct {
	Users            []catalog.User
	Categories       []catalog.Category
	Brands           []catalog.Brand
	Products         []catalog.Product
	Authors          []catalog.Author
	Books            []catalog.Book
	Customers        []catalog.Customer
	Orders           []catalog.Order
	OrderItems       []catalog.OrderItem
	FeaturedProducts []catalog.FeaturedProduct
	UserPreferences  []catalog.UserPreference
}

func ptr[T any](v T) *T { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Reference returns the fixed storefront and library dataset.
func Reference() *Dataset {
	ds := &Dataset{
		Users:            referenceUsers(),
		Categories:       referenceCategories(),
		Brands:           referenceBrands(),
		Products:         referenceProducts(),
		Authors:          referenceAuthors(),
		Books:            referenceBooks(),
		Customers:        referenceCustomers(),
		FeaturedProducts: referenceFeatured(),
		UserPreferences:  referencePreferences(),
	}
	ds.Orders, ds.OrderItems = referenceOrders(ds.Products)

	return ds
}

func referenceUsers() []catalog.User {
	type u struct {
		name, email, password string
		age                   int
		phone, address        string
		country               string
		status                catalog.UserStatus
		role                  catalog.UserRole
		lastLogin             *time.Time
	}
	rows := []u{
		{"John Doe", "john.doe@example.com", "john-secret-1", 34, "+1-555-0101", "12 Main St, Springfield", "USA", catalog.UserActive, catalog.RoleAdmin, ptr(at(2024, 12, 20, 9, 15))},
		{"Jane Smith", "jane.smith@example.com", "jane-secret-2", 28, "+44-20-7946-0102", "221 Baker St, London", "UK", catalog.UserActive, catalog.RoleEditor, ptr(at(2024, 12, 18, 21, 2))},
		{"Michael Johnson", "michael.j@example.com", "michael-secret-3", 45, "+1-416-555-0103", "88 King St W, Toronto", "Canada", catalog.UserActive, catalog.RoleMember, ptr(at(2024, 11, 30, 7, 45))},
		{"Emily Davis", "emily.davis@example.com", "emily-secret-4", 23, "+1-555-0104", "400 Oak Ave, Austin", "USA", catalog.UserActive, catalog.RoleSubscriber, ptr(at(2024, 10, 2, 18, 30))},
		{"David Wilson", "david.wilson@example.com", "david-secret-5", 39, "+61-2-5550-0105", "7 Harbour Rd, Sydney", "Australia", catalog.UserActive, catalog.RoleMember, ptr(at(2024, 9, 29, 12, 0))},
		{"Sarah Brown", "sarah.brown@example.com", "sarah-secret-6", 31, "+49-30-5550-0106", "Unter den Linden 5, Berlin", "Germany", catalog.UserActive, catalog.RoleSubscriber, ptr(at(2024, 9, 6, 8, 10))},
		{"Chris Lee", "chris.lee@example.com", "chris-secret-7", 27, "+82-2-555-0107", "31 Gangnam-daero, Seoul", "South Korea", catalog.UserActive, catalog.RoleMember, ptr(at(2024, 11, 25, 22, 40))},
		{"Laura Martinez", "laura.m@example.com", "laura-secret-8", 36, "+34-91-555-0108", "Calle Mayor 10, Madrid", "Spain", catalog.UserInactive, catalog.RoleSubscriber, ptr(at(2024, 5, 12, 10, 5))},
		{"Daniel Kim", "daniel.kim@example.com", "daniel-secret-9", 42, "+1-555-0109", "19 Pine St, Seattle", "USA", catalog.UserActive, catalog.RoleSubscriber, nil},
		{"Olivia Taylor", "olivia.t@example.com", "olivia-secret-10", 25, "+44-161-555-0110", "3 Deansgate, Manchester", "UK", catalog.UserInactive, catalog.RoleSubscriber, nil},
	}

	users := make([]catalog.User, len(rows))
	for i, r := range rows {
		users[i] = catalog.User{
			ID:        int64(i + 1),
			Name:      r.name,
			Email:     r.email,
			Password:  r.password,
			Age:       ptr(r.age),
			Phone:     ptr(r.phone),
			Address:   ptr(r.address),
			Country:   ptr(r.country),
			Status:    r.status,
			Role:      r.role,
			LastLogin: r.lastLogin,
		}
	}

	// Olivia closed her account.
	users[9].IsDeleted = true
	users[9].DeletedAt = ptr(at(2024, 6, 1, 12, 0))

	return users
}

func referenceCategories() []catalog.Category {
	return []catalog.Category{
		{ID: 1, Name: "Electronics", Description: ptr("Devices, gadgets and consumer electronics")},
		{ID: 2, Name: "Computers", Description: ptr("Laptops, tablets and desktops"), ParentID: ptr(int64(1))},
		{ID: 3, Name: "Smartphones", Description: ptr("Mobile phones"), ParentID: ptr(int64(1))},
		{ID: 4, Name: "Audio", Description: ptr("Headphones, earbuds and speakers"), ParentID: ptr(int64(1))},
		{ID: 5, Name: "Accessories", Description: ptr("Keyboards, mice, hubs and monitors"), ParentID: ptr(int64(2))},
		{ID: 6, Name: "Home & Kitchen", Description: ptr("Everything for the home")},
		{ID: 7, Name: "Appliances", Description: ptr("Large and small kitchen appliances"), ParentID: ptr(int64(6))},
		{ID: 8, Name: "Books", Description: ptr("Printed books")},
		{ID: 9, Name: "Fiction", Description: ptr("Novels and short stories"), ParentID: ptr(int64(8))},
		{ID: 10, Name: "Gaming", Description: ptr("Consoles and games"), ParentID: ptr(int64(1))},
	}
}

func referenceBrands() []catalog.Brand {
	return []catalog.Brand{
		{ID: 1, Name: "Apple", Description: ptr("Consumer electronics and software"), Website: ptr("https://www.apple.com")},
		{ID: 2, Name: "Samsung", Description: ptr("Electronics and appliances"), Website: ptr("https://www.samsung.com")},
		{ID: 3, Name: "Dell", Description: ptr("Computers and monitors"), Website: ptr("https://www.dell.com")},
		{ID: 4, Name: "Sony", Description: ptr("Audio, video and gaming"), Website: ptr("https://www.sony.com")},
		{ID: 5, Name: "Logitech", Description: ptr("Computer peripherals"), Website: ptr("https://www.logitech.com")},
		{ID: 6, Name: "Anker", Description: ptr("Charging and connectivity"), Website: ptr("https://www.anker.com")},
		{ID: 7, Name: "Bose", Description: ptr("Audio equipment"), Website: ptr("https://www.bose.com")},
		{ID: 8, Name: "Microsoft", Description: ptr("Software, devices and gaming"), Website: ptr("https://www.microsoft.com")},
		{ID: 9, Name: "LG", Description: ptr("Home entertainment and appliances"), Website: ptr("https://www.lg.com")},
		{ID: 10, Name: "Philips", Description: ptr("Lighting and household products"), Website: ptr("https://www.philips.com")},
	}
}

func referenceProducts() []catalog.Product {
	type p struct {
		name, desc, price string
		stock             int
		category, brand   int64
		sku               string
		status            catalog.ProductStatus
		featured          bool
	}
	rows := []p{
		{"MacBook Pro 14", "M3 Pro laptop with 18GB RAM", "2499.99", 15, 2, 1, "APL-MBP14-M3", catalog.ProductActive, true},
		{"iPhone 15", "6.1-inch smartphone, 128GB", "999.99", 40, 3, 1, "APL-IP15-128", catalog.ProductActive, true},
		{"Galaxy S24", "6.2-inch smartphone, 256GB", "899.99", 35, 3, 2, "SAM-GS24-256", catalog.ProductActive, false},
		{"Dell XPS 13", "13.4-inch ultrabook", "1499.99", 20, 2, 3, "DEL-XPS13-9340", catalog.ProductActive, false},
		{"Sony WH-1000XM5", "Noise cancelling headphones", "399.99", 50, 4, 4, "SON-WH1000XM5", catalog.ProductActive, false},
		{"Logitech MX Keys Keyboard", "Wireless illuminated keyboard", "119.99", 80, 5, 5, "LOG-MXKEYS", catalog.ProductActive, false},
		{"Logitech MX Master 3S Mouse", "Wireless performance mouse", "99.99", 90, 5, 5, "LOG-MXM3S", catalog.ProductActive, false},
		{"Anker USB-C Hub", "7-in-1 USB-C adapter", "49.99", 150, 5, 6, "ANK-HUB-7IN1", catalog.ProductActive, false},
		{"Bose SoundLink Speaker", "Portable Bluetooth speaker", "149.99", 60, 4, 7, "BOS-SLFLEX", catalog.ProductActive, false},
		{"Xbox Series X", "1TB gaming console", "499.99", 25, 10, 8, "MSF-XBSX-1TB", catalog.ProductActive, false},
		{"LG OLED TV 55", "55-inch 4K OLED television", "1999.99", 10, 1, 9, "LG-OLED55C3", catalog.ProductActive, true},
		{"Philips Air Fryer", "4.1L digital air fryer", "129.99", 45, 7, 10, "PHI-AF-HD9252", catalog.ProductInactive, false},
		{"Samsung Galaxy Tab S9", "11-inch Android tablet", "799.99", 30, 2, 2, "SAM-TABS9-128", catalog.ProductActive, false},
		{"Sony PlayStation 5", "825GB gaming console", "499.99", 18, 10, 4, "SON-PS5-825", catalog.ProductActive, false},
		{"Apple Watch Series 9", "45mm GPS smartwatch", "399.99", 55, 1, 1, "APL-AW9-45", catalog.ProductActive, false},
		{"Dell UltraSharp Monitor 27", "27-inch QHD USB-C monitor", "549.99", 22, 5, 3, "DEL-U2724D", catalog.ProductActive, false},
		{"Microsoft Surface Laptop", "13.5-inch touchscreen laptop", "1499.99", 12, 2, 8, "MSF-SL5-135", catalog.ProductActive, false},
		{"LG Refrigerator", "French door refrigerator, 26 cu ft", "2719.99", 5, 7, 9, "LG-LRFXS2503S", catalog.ProductDiscontinued, false},
		{"Philips Hue Starter Kit", "Smart lighting starter kit", "199.99", 70, 6, 10, "PHI-HUE-STK", catalog.ProductActive, false},
		{"Bose QuietComfort Earbuds", "Noise cancelling earbuds", "279.99", 65, 4, 7, "BOS-QCEB2", catalog.ProductActive, false},
	}

	products := make([]catalog.Product, len(rows))
	for i, r := range rows {
		products[i] = catalog.Product{
			ID:          int64(i + 1),
			Name:        r.name,
			Description: ptr(r.desc),
			Price:       dec(r.price),
			Stock:       r.stock,
			CategoryID:  ptr(r.category),
			BrandID:     ptr(r.brand),
			SKU:         r.sku,
			Status:      r.status,
			Featured:    r.featured,
		}
	}

	return products
}

func referenceAuthors() []catalog.Author {
	return []catalog.Author{
		{ID: 1, Name: "George Orwell", Country: ptr("UK"), BirthYear: ptr(1903)},
		{ID: 2, Name: "Jane Austen", Country: ptr("UK"), BirthYear: ptr(1775)},
		{ID: 3, Name: "Gabriel Garcia Marquez", Country: ptr("Colombia"), BirthYear: ptr(1927)},
		{ID: 4, Name: "Haruki Murakami", Country: ptr("Japan"), BirthYear: ptr(1949)},
		{ID: 5, Name: "Chimamanda Ngozi Adichie", Country: ptr("Nigeria"), BirthYear: ptr(1977)},
	}
}

func referenceBooks() []catalog.Book {
	price := func(s string) decimal.NullDecimal { return decimal.NewNullDecimal(dec(s)) }

	return []catalog.Book{
		{ID: 1, Title: "1984", AuthorID: ptr(int64(1)), Genre: ptr("Dystopian"), PublishedYear: ptr(1949), Price: price("15.99")},
		{ID: 2, Title: "Animal Farm", AuthorID: ptr(int64(1)), Genre: ptr("Satire"), PublishedYear: ptr(1945), Price: price("9.99")},
		{ID: 3, Title: "Pride and Prejudice", AuthorID: ptr(int64(2)), Genre: ptr("Romance"), PublishedYear: ptr(1813), Price: price("12.50")},
		{ID: 4, Title: "One Hundred Years of Solitude", AuthorID: ptr(int64(3)), Genre: ptr("Magical Realism"), PublishedYear: ptr(1967), Price: price("18.00")},
		{ID: 5, Title: "Norwegian Wood", AuthorID: ptr(int64(4)), Genre: ptr("Fiction"), PublishedYear: ptr(1987), Price: price("14.25")},
		{ID: 6, Title: "Kafka on the Shore", AuthorID: ptr(int64(4)), Genre: ptr("Fiction"), PublishedYear: ptr(2002), Price: price("16.75")},
		{ID: 7, Title: "Collected Folk Tales", Genre: ptr("Folklore")},
	}
}

func referenceCustomers() []catalog.Customer {
	return []catalog.Customer{
		{ID: 1, Name: "Alice Walker", Email: "alice.walker@example.net", City: ptr("New York"), MembershipLevel: catalog.MembershipPremium},
		{ID: 2, Name: "Bob Martin", Email: "bob.martin@example.net", City: ptr("Chicago"), MembershipLevel: catalog.MembershipBasic},
		{ID: 3, Name: "Carol White", Email: "carol.white@example.net", City: ptr("Boston"), MembershipLevel: catalog.MembershipVIP},
		{ID: 4, Name: "Dan Green", Email: "dan.green@example.net", City: ptr("Seattle"), MembershipLevel: catalog.MembershipBasic},
		{ID: 5, Name: "Eva Black", Email: "eva.black@example.net", City: ptr("Austin"), MembershipLevel: catalog.MembershipPremium},
	}
}

// referenceOrders builds the orders and their items. Unit prices are the
// product prices, so every line total is quantity * unit_price and every
// order total is items + shipping - discount.
func referenceOrders(products []catalog.Product) ([]catalog.Order, []catalog.OrderItem) {
	type line struct {
		product  int64
		quantity int
	}
	type o struct {
		customer           int64
		date               time.Time
		method             string
		payment            catalog.PaymentStatus
		status             catalog.OrderStatus
		shipping, discount string
		lines              []line
	}
	rows := []o{
		{1, at(2023, 3, 15, 10, 30), "credit_card", catalog.PaymentPaid, catalog.OrderDelivered, "0", "50", []line{{2, 1}}},
		{2, at(2023, 5, 22, 14, 10), "paypal", catalog.PaymentPaid, catalog.OrderDelivered, "9.99", "0", []line{{5, 1}}},
		{3, at(2023, 8, 9, 9, 45), "credit_card", catalog.PaymentPaid, catalog.OrderDelivered, "0", "100", []line{{4, 1}, {8, 2}}},
		{1, at(2023, 10, 30, 16, 20), "paypal", catalog.PaymentRefunded, catalog.OrderCancelled, "9.99", "0", []line{{12, 1}}},
		{4, at(2023, 12, 18, 11, 5), "bank_transfer", catalog.PaymentPaid, catalog.OrderDelivered, "0", "0", []line{{10, 1}}},
		{5, at(2024, 1, 8, 13, 0), "credit_card", catalog.PaymentPaid, catalog.OrderDelivered, "0", "200", []line{{1, 1}}},
		{2, at(2024, 2, 14, 18, 30), "paypal", catalog.PaymentPaid, catalog.OrderDelivered, "9.99", "20", []line{{6, 1}, {7, 1}, {8, 1}, {9, 1}}},
		{6, at(2024, 3, 3, 12, 15), "credit_card", catalog.PaymentPaid, catalog.OrderDelivered, "0", "0", []line{{3, 1}}},
		{7, at(2024, 3, 27, 9, 0), "credit_card", catalog.PaymentPaid, catalog.OrderShipped, "9.99", "0", []line{{15, 1}}},
		{1, at(2024, 4, 19, 15, 40), "bank_transfer", catalog.PaymentPaid, catalog.OrderDelivered, "0", "0", []line{{14, 1}}},
		{8, at(2024, 5, 11, 10, 25), "paypal", catalog.PaymentPaid, catalog.OrderDelivered, "9.99", "0", []line{{20, 2}}},
		{3, at(2024, 6, 2, 17, 55), "credit_card", catalog.PaymentPaid, catalog.OrderShipped, "0", "150", []line{{11, 1}, {19, 1}}},
		{9, at(2024, 6, 30, 8, 45), "credit_card", catalog.PaymentFailed, catalog.OrderCancelled, "9.99", "0", []line{{16, 2}}},
		{2, at(2024, 7, 21, 20, 10), "paypal", catalog.PaymentPaid, catalog.OrderDelivered, "0", "0", []line{{13, 1}}},
		{5, at(2024, 8, 15, 11, 30), "credit_card", catalog.PaymentPaid, catalog.OrderProcessing, "0", "75", []line{{17, 1}, {7, 1}}},
		{6, at(2024, 9, 5, 14, 5), "bank_transfer", catalog.PaymentPending, catalog.OrderPending, "49.99", "0", []line{{18, 1}}},
		{4, at(2024, 9, 28, 19, 20), "paypal", catalog.PaymentPaid, catalog.OrderShipped, "9.99", "0", []line{{5, 1}}},
		{1, at(2024, 10, 12, 10, 0), "credit_card", catalog.PaymentPaid, catalog.OrderProcessing, "0", "0", []line{{2, 1}}},
		{7, at(2024, 11, 24, 16, 45), "paypal", catalog.PaymentPending, catalog.OrderPending, "9.99", "0", []line{{12, 2}}},
		{3, at(2024, 12, 20, 12, 30), "credit_card", catalog.PaymentPaid, catalog.OrderProcessing, "9.99", "0", []line{{9, 3}}},
	}

	priceOf := make(map[int64]decimal.Decimal, len(products))
	for _, p := range products {
		priceOf[p.ID] = p.Price
	}

	orders := make([]catalog.Order, 0, len(rows))
	var items []catalog.OrderItem
	for i, r := range rows {
		orderID := int64(i + 1)
		subtotal := decimal.Zero
		for _, l := range r.lines {
			unit := priceOf[l.product]
			total := unit.Mul(decimal.NewFromInt(int64(l.quantity)))
			subtotal = subtotal.Add(total)
			items = append(items, catalog.OrderItem{
				ID:         int64(len(items) + 1),
				OrderID:    orderID,
				ProductID:  l.product,
				Quantity:   l.quantity,
				UnitPrice:  unit,
				TotalPrice: total,
			})
		}

		shipping, discount := dec(r.shipping), dec(r.discount)
		orders = append(orders, catalog.Order{
			ID:             orderID,
			CustomerID:     r.customer,
			OrderDate:      r.date,
			TotalAmount:    subtotal.Add(shipping).Sub(discount),
			PaymentMethod:  ptr(r.method),
			PaymentStatus:  r.payment,
			OrderStatus:    r.status,
			ShippingAmount: shipping,
			DiscountAmount: discount,
		})
	}

	return orders, items
}

func referenceFeatured() []catalog.FeaturedProduct {
	type f struct {
		product    int64
		start, end time.Time
	}
	rows := []f{
		{1, date(2024, 1, 1), date(2024, 1, 31)},
		{2, date(2024, 2, 1), date(2024, 2, 29)},
		{11, date(2024, 3, 1), date(2024, 3, 31)},
		{14, date(2024, 11, 20), date(2024, 12, 31)},
		{5, date(2024, 6, 1), date(2024, 6, 15)},
		{13, date(2024, 6, 10), date(2024, 7, 10)},
		{10, date(2024, 11, 25), date(2024, 12, 26)},
		{19, date(2024, 12, 1), date(2024, 12, 31)},
	}

	featured := make([]catalog.FeaturedProduct, len(rows))
	for i, r := range rows {
		featured[i] = catalog.FeaturedProduct{ID: int64(i + 1), ProductID: r.product, StartDate: r.start, EndDate: r.end}
	}

	return featured
}

func referencePreferences() []catalog.UserPreference {
	prefs := func(theme string, fontSize int, notifications bool, language string) schema.JSONB {
		return schema.JSONB{
			"theme":         theme,
			"fontSize":      fontSize,
			"notifications": notifications,
			"language":      language,
		}
	}

	return []catalog.UserPreference{
		{ID: 1, UserID: 1, Preferences: prefs("dark", 14, true, "en")},
		{ID: 2, UserID: 2, Preferences: prefs("light", 16, false, "en")},
		{ID: 3, UserID: 3, Preferences: prefs("dark", 12, true, "fr")},
		{ID: 4, UserID: 1, Preferences: prefs("light", 15, true, "en")},
		{ID: 5, UserID: 5, Preferences: prefs("dark", 18, false, "de")},
	}
}
