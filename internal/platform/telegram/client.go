package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"prize-pool-backend/internal/common/logger"
	"prize-pool-backend/internal/features/pool/models"
)

const defaultBaseURL = "https://api.telegram.org"

// ErrNotChat is returned for identities that are not Telegram user ids,
// e.g. TON wallet addresses.
var ErrNotChat = errors.New("identity is not a telegram chat id")

type Client struct {
	httpClient *http.Client
	token      string
	baseURL    string
}

// RPSError представляет ошибку превышения лимита запросов
type RPSError struct {
	Msg        string
	RetryAfter int
}

func (e *RPSError) Error() string {
	return e.Msg
}

// Response представляет ответ от Telegram API
type Response struct {
	Ok          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters,omitempty"`
}

func NewClient(token string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		token:   token,
		baseURL: defaultBaseURL,
	}
}

// NotifyWinner tells the drawn winner how much the reward pool holds.
func (c *Client) NotifyWinner(ctx context.Context, draw *models.Draw) error {
	message := fmt.Sprintf(
		"🎉 You were drawn as the winner!\n\n"+
			"Your weight: %d of %d\n"+
			"Reward pool: %d\n\n"+
			"The payout is sent once the pool admin confirms it.",
		draw.WinnerWeight, draw.TotalWeight, draw.RewardPool,
	)
	return c.notify(ctx, draw.Winner, message)
}

// NotifyPayout tells the winner a reward was paid out.
func (c *Client) NotifyPayout(ctx context.Context, claim *models.Claim) error {
	message := fmt.Sprintf("💸 A reward of %d has been paid to you.", claim.Amount)
	return c.notify(ctx, claim.Winner, message)
}

func (c *Client) notify(ctx context.Context, identity, text string) error {
	chatID, err := strconv.ParseInt(identity, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotChat, identity)
	}
	if err := c.sendMessage(ctx, chatID, text); err != nil {
		logger.Warn().Err(err).Int64("chat_id", chatID).Msg("Failed to send notification")
		return err
	}
	logger.Debug().Int64("chat_id", chatID).Msg("Notification sent")
	return nil
}

func (c *Client) sendMessage(ctx context.Context, chatID int64, text string) error {
	params := url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"text":    {text},
	}

	var response Response
	if err := c.makeRequest(ctx, "sendMessage", params, &response); err != nil {
		return err
	}

	if !response.Ok {
		if response.ErrorCode == http.StatusTooManyRequests {
			rpsErr := &RPSError{Msg: "telegram rate limit: " + response.Description}
			if response.Parameters != nil {
				rpsErr.RetryAfter = response.Parameters.RetryAfter
			}
			return rpsErr
		}
		return fmt.Errorf("telegram API error: %s", response.Description)
	}
	return nil
}

func (c *Client) makeRequest(ctx context.Context, method string, data url.Values, result interface{}) error {
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}
