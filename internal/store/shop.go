// shop.go exposes the shop catalog. The catalog is static after startup
// (seeded from defaults or shop.json), so reads only need the store lock.
package store

import "github.com/master-pd/marpd/internal/common"

// Items returns a copy of the full catalog.
func (s *Store) Items() []ShopItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ShopItem(nil), s.shop.Items...)
}

// ItemByID looks up one catalog entry.
func (s *Store) ItemByID(id string) (*ShopItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.shop.Items {
		if s.shop.Items[i].ID == id {
			cp := s.shop.Items[i]
			return &cp, nil
		}
	}
	return nil, common.ErrItemNotFound
}
