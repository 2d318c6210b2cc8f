package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/ccalu/channelpulse/internal/model"
)

// ErrNotFound means the API answered but returned no items.
var ErrNotFound = errors.New("youtube: not found")

// FetchChannelInfo calls channels.list(part=statistics,snippet) for one
// channel ID. Costs 1 unit.
func (g *Gateway) FetchChannelInfo(ctx context.Context, channelID, label string) (*ChannelInfo, error) {
	params := url.Values{}
	params.Set("part", "statistics,snippet")
	params.Set("id", channelID)

	body, err := g.Call(ctx, EndpointChannels, params, label)
	if err != nil {
		return nil, err
	}

	var resp channelListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &Fault{Kind: FaultTransport, Message: "malformed channels.list payload", Err: err}
	}
	if len(resp.Items) == 0 {
		return nil, ErrNotFound
	}

	item := resp.Items[0]
	return &ChannelInfo{
		ChannelID:       item.ID,
		Title:           item.Snippet.Title,
		SubscriberCount: atoi64(item.Statistics.SubscriberCount),
		VideoCount:      atoi64(item.Statistics.VideoCount),
		ViewCount:       atoi64(item.Statistics.ViewCount),
		PublishedAt:     item.Snippet.PublishedAt,
		CustomURL:       item.Snippet.CustomURL,
		Country:         item.Snippet.Country,
	}, nil
}

// LookupChannelID resolves a handle or legacy username to a channel ID via
// channels.list(part=id). lookupParam is "forHandle" or "forUsername".
// Costs 1 unit.
func (g *Gateway) LookupChannelID(ctx context.Context, lookupParam, value, label string) (string, error) {
	params := url.Values{}
	params.Set("part", "id")
	params.Set(lookupParam, value)

	body, err := g.Call(ctx, EndpointChannels, params, label)
	if err != nil {
		return "", err
	}

	var resp channelListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &Fault{Kind: FaultTransport, Message: "malformed channels.list payload", Err: err}
	}
	if len(resp.Items) == 0 {
		return "", ErrNotFound
	}
	return resp.Items[0].ID, nil
}

// SearchResult is one video hit from search.list.
type SearchResult struct {
	VideoID     string
	Title       string
	PublishedAt time.Time
}

// SearchRecentVideos fetches one page of search.list for videos published
// after the cutoff, newest first. Returns the hits and the next page token
// (empty on the last page). Costs 100 units per page.
func (g *Gateway) SearchRecentVideos(ctx context.Context, channelID string, publishedAfter time.Time, pageToken, label string) ([]SearchResult, string, error) {
	params := url.Values{}
	params.Set("part", "id,snippet")
	params.Set("channelId", channelID)
	params.Set("type", "video")
	params.Set("order", "date")
	params.Set("maxResults", "50")
	params.Set("publishedAfter", publishedAfter.UTC().Format(time.RFC3339))
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	body, err := g.Call(ctx, EndpointSearch, params, label)
	if err != nil {
		return nil, "", err
	}

	var resp searchListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, "", &Fault{Kind: FaultTransport, Message: "malformed search.list payload", Err: err}
	}

	results := make([]SearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		published, perr := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
		if perr != nil {
			continue
		}
		results = append(results, SearchResult{
			VideoID:     item.ID.VideoID,
			Title:       DecodeEntities(item.Snippet.Title),
			PublishedAt: published,
		})
	}
	return results, resp.NextPageToken, nil
}

// VideoDetails carries per-video counters from videos.list.
type VideoDetails struct {
	ViewCount       int64
	LikeCount       int64
	CommentCount    int64
	DurationSeconds int
}

// FetchVideoDetails calls videos.list(part=statistics,contentDetails) for up
// to 50 IDs per batch and returns details keyed by video ID. Costs 1 unit
// per batch.
func (g *Gateway) FetchVideoDetails(ctx context.Context, videoIDs []string, label string) (map[string]VideoDetails, error) {
	details := make(map[string]VideoDetails, len(videoIDs))

	for start := 0; start < len(videoIDs); start += 50 {
		end := start + 50
		if end > len(videoIDs) {
			end = len(videoIDs)
		}
		batch := videoIDs[start:end]

		params := url.Values{}
		params.Set("part", "statistics,contentDetails")
		params.Set("id", joinIDs(batch))

		body, err := g.Call(ctx, EndpointVideos, params, label)
		if err != nil {
			return details, err
		}

		var resp videoListResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return details, &Fault{Kind: FaultTransport, Message: "malformed videos.list payload", Err: err}
		}
		for _, item := range resp.Items {
			details[item.ID] = VideoDetails{
				ViewCount:       atoi64(item.Statistics.ViewCount),
				LikeCount:       atoi64(item.Statistics.LikeCount),
				CommentCount:    atoi64(item.Statistics.CommentCount),
				DurationSeconds: ParseISODuration(item.ContentDetails.Duration),
			}
		}
	}
	return details, nil
}

// FetchComments pages through commentThreads.list for a video, flattening
// replies, up to maxComments entries (hard cap 1000). Costs 1 unit per page.
func (g *Gateway) FetchComments(ctx context.Context, videoID string, maxComments int, label string) ([]model.Comment, error) {
	const hardCap = 1000
	if maxComments <= 0 || maxComments > hardCap {
		maxComments = hardCap
	}

	var comments []model.Comment
	pageToken := ""
	for {
		params := url.Values{}
		params.Set("part", "snippet,replies")
		params.Set("videoId", videoID)
		params.Set("maxResults", strconv.Itoa(min(maxComments, 100)))
		params.Set("order", "relevance")
		params.Set("textFormat", "plainText")
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		body, err := g.Call(ctx, EndpointCommentThreads, params, label)
		if err != nil {
			return comments, err
		}

		var resp commentThreadListResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return comments, &Fault{Kind: FaultTransport, Message: "malformed commentThreads.list payload", Err: err}
		}

		for _, item := range resp.Items {
			top := item.Snippet.TopLevelComment
			comments = append(comments, buildComment(top.ID, videoID, top.Snippet, false, "", item.Snippet.TotalReplyCount))
			for _, reply := range item.Replies.Comments {
				comments = append(comments, buildComment(reply.ID, videoID, reply.Snippet, true, item.ID, 0))
			}
		}

		pageToken = resp.NextPageToken
		if pageToken == "" || len(comments) >= maxComments {
			break
		}
	}
	if len(comments) > maxComments {
		comments = comments[:maxComments]
	}
	return comments, nil
}

func buildComment(id, videoID string, s commentSnippet, isReply bool, parentID string, replyCount int) model.Comment {
	published, _ := time.Parse(time.RFC3339, s.PublishedAt)
	return model.Comment{
		CommentID:       id,
		VideoID:         videoID,
		AuthorName:      s.AuthorDisplayName,
		AuthorChannelID: s.AuthorChannelID.Value,
		Text:            DecodeEntities(s.TextDisplay),
		LikeCount:       s.LikeCount,
		PublishedAt:     published,
		IsReply:         isReply,
		ParentCommentID: parentID,
		ReplyCount:      replyCount,
	}
}

func joinIDs(ids []string) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += id
	}
	return out
}
