package service

import (
	"context"

	"github.com/ccalu/channelpulse/internal/model"
	"github.com/ccalu/channelpulse/internal/repository"
)

// ChannelService serves the dashboard table with a cache-aside layer in
// front of the snapshot join.
type ChannelService struct {
	channels *repository.ChannelRepo
	cache    *CacheService
}

func NewChannelService(channels *repository.ChannelRepo, cache *CacheService) *ChannelService {
	return &ChannelService{channels: channels, cache: cache}
}

// Table returns the dashboard rows, cached in Redis between runs. The bool
// reports whether the cache answered.
func (s *ChannelService) Table(ctx context.Context) ([]model.ChannelTableRow, bool, error) {
	if rows, err := s.cache.GetTable(ctx); err == nil && rows != nil {
		return rows, true, nil
	}

	rows, err := s.channels.TableRows(ctx)
	if err != nil {
		return nil, false, err
	}
	s.cache.SetTable(ctx, rows)
	return rows, false, nil
}

// ProblemChannels lists channels failing repeatedly.
func (s *ChannelService) ProblemChannels(ctx context.Context, minFailures int) ([]model.Channel, error) {
	if minFailures <= 0 {
		minFailures = 3
	}
	return s.channels.ListProblemChannels(ctx, minFailures)
}

// StaleChannels lists active channels not collected within the window.
func (s *ChannelService) StaleChannels(ctx context.Context, hours int) ([]model.Channel, error) {
	if hours <= 0 {
		hours = 48
	}
	return s.channels.ListStale(ctx, hours)
}
