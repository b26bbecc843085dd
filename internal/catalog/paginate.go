package catalog

import "space-trips/internal/models"

// DefaultPageSize applies when the caller asks for a non-positive page size.
const DefaultPageSize = 20

// Paginate returns up to pageSize launches following the one whose cursor equals after.
// launches must already be ordered. An empty or unknown cursor starts from the beginning.
func Paginate(launches []models.Launch, after string, pageSize int) models.LaunchConnection {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	start := 0
	if after != "" {
		for i, l := range launches {
			if l.Cursor == after {
				start = i + 1
				break
			}
		}
	}

	// Clamp before adding so a huge pageSize cannot overflow.
	if remaining := len(launches) - start; pageSize > remaining {
		pageSize = remaining
	}
	end := start + pageSize
	page := make([]models.Launch, end-start)
	copy(page, launches[start:end])

	conn := models.LaunchConnection{
		Launches: page,
		HasMore:  end < len(launches),
	}
	if len(page) > 0 {
		conn.Cursor = page[len(page)-1].Cursor
	}
	return conn
}
