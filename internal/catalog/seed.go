package catalog

import (
	"context"

	"github.com/ECHOzdjd/iSpot/internal/domain"
)

// StaticSource serves a fixed marker list. The zero value serves SeedMarkers.
type StaticSource struct {
	List []domain.Marker
}

// Markers returns a copy of the configured list, or the seed data if none was set.
func (s StaticSource) Markers(_ context.Context) ([]domain.Marker, error) {
	list := s.List
	if list == nil {
		list = SeedMarkers()
	}
	out := make([]domain.Marker, len(list))
	copy(out, list)
	return out, nil
}

// SeedMarkers returns the demo catalog around West Lake, Hangzhou:
// three people, three activities and four spots.
func SeedMarkers() []domain.Marker {
	return []domain.Marker{
		{ID: "person1", Latitude: 30.2741, Longitude: 120.1551, Title: "张三", Description: "喜欢摄影", Category: domain.CategoryPerson},
		{ID: "person2", Latitude: 30.2841, Longitude: 120.1651, Title: "李四", Description: "运动爱好者", Category: domain.CategoryPerson},
		{ID: "person3", Latitude: 30.2641, Longitude: 120.1451, Title: "王五", Description: "美食达人", Category: domain.CategoryPerson},

		{ID: "activity1", Latitude: 30.2741, Longitude: 120.1751, Title: "晨跑活动", Description: "每天早上6点", Category: domain.CategoryActivity},
		{ID: "activity2", Latitude: 30.2941, Longitude: 120.1551, Title: "摄影聚会", Description: "周末摄影活动", Category: domain.CategoryActivity},
		{ID: "activity3", Latitude: 30.2541, Longitude: 120.1551, Title: "读书会", Description: "每周三晚上", Category: domain.CategoryActivity},

		{ID: "spot1", Latitude: 30.2741, Longitude: 120.1351, Title: "咖啡厅", Description: "环境优雅", Category: domain.CategorySpot},
		{ID: "spot2", Latitude: 30.3041, Longitude: 120.1551, Title: "西湖公园", Description: "适合散步", Category: domain.CategorySpot},
		{ID: "spot3", Latitude: 30.2441, Longitude: 120.1551, Title: "图书馆", Description: "安静学习", Category: domain.CategorySpot},
		{ID: "spot4", Latitude: 30.2741, Longitude: 120.1851, Title: "健身房", Description: "设备齐全", Category: domain.CategorySpot},
	}
}
