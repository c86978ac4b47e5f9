package nearcadedto

// ShopsListResponse is one page of GET /shops.
type ShopsListResponse struct {
	CurrentPage int    `json:"currentPage"`
	HasNextPage bool   `json:"hasNextPage"`
	HasPrevPage bool   `json:"hasPrevPage"`
	Shops       []Shop `json:"shops"`
	TotalCount  int    `json:"totalCount"`
}

type ShopInfoResponse struct {
	Shop Shop `json:"shop"`
}

// Shop is identified by (Source, ID); ID alone is not unique.
type Shop struct {
	MongoID      string      `json:"_id,omitempty"`
	Address      Address     `json:"address"`
	Comment      string      `json:"comment"`
	CreatedAt    string      `json:"createdAt,omitempty"`
	Games        []Game      `json:"games"`
	ID           int64       `json:"id"`
	Location     Location    `json:"location"`
	Name         string      `json:"name"`
	OpeningHours [][]float64 `json:"openingHours"`
	Source       string      `json:"source"`
	UpdatedAt    string      `json:"updatedAt"`
}

type Address struct {
	Detailed string   `json:"detailed"`
	General  []string `json:"general"`
}

type Location struct {
	Coordinates []float64 `json:"coordinates"`
	Type        string    `json:"type"`
}

// Game is one machine group (game unit) of a shop. GameID is unique within the shop.
type Game struct {
	Comment  string `json:"comment"`
	Cost     string `json:"cost"`
	GameID   int64  `json:"gameId"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	TitleID  int64  `json:"titleId"`
	Version  string `json:"version"`
}
