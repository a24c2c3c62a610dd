package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client wraps the engine API for dispatchers. The engine token is fixed at
// construction; every call names the player it acts for.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Profile(ctx context.Context, player string) (map[string]any, error) {
	return c.get(ctx, playerPath(player, "/profile"))
}

func (c *Client) Grant(ctx context.Context, player string, coins, xp int64, serverBonus float64, reason string) (map[string]any, error) {
	return c.post(ctx, playerPath(player, "/grant"), map[string]any{
		"coins":        coins,
		"xp":           xp,
		"server_bonus": serverBonus,
		"reason":       reason,
	})
}

func (c *Client) Deposit(ctx context.Context, player string, amount int64) (map[string]any, error) {
	return c.post(ctx, playerPath(player, "/deposit"), map[string]any{"amount": amount})
}

func (c *Client) Withdraw(ctx context.Context, player string, amount int64) (map[string]any, error) {
	return c.post(ctx, playerPath(player, "/withdraw"), map[string]any{"amount": amount})
}

func (c *Client) ClaimDaily(ctx context.Context, player string) (map[string]any, error) {
	return c.post(ctx, playerPath(player, "/daily"), nil)
}

func (c *Client) Prestige(ctx context.Context, player string) (map[string]any, error) {
	return c.post(ctx, playerPath(player, "/prestige"), nil)
}

func (c *Client) TrainSkill(ctx context.Context, player, skill string) (map[string]any, error) {
	return c.post(ctx, playerPath(player, "/skills/"+url.PathEscape(skill)+"/train"), nil)
}

func (c *Client) Hunt(ctx context.Context, player string) (map[string]any, error) {
	return c.post(ctx, playerPath(player, "/pets/hunt"), nil)
}

func (c *Client) EquipPet(ctx context.Context, player, pet string) (map[string]any, error) {
	return c.post(ctx, playerPath(player, "/pets/"+url.PathEscape(pet)+"/equip"), nil)
}

func (c *Client) UnequipPet(ctx context.Context, player, pet string) (map[string]any, error) {
	return c.post(ctx, playerPath(player, "/pets/"+url.PathEscape(pet)+"/unequip"), nil)
}

func (c *Client) SwapPets(ctx context.Context, player, petOut, petIn string) (map[string]any, error) {
	return c.post(ctx, playerPath(player, "/pets/swap"), map[string]any{
		"out": petOut,
		"in":  petIn,
	})
}

func (c *Client) SwapBudget(ctx context.Context, player string) (map[string]any, error) {
	return c.get(ctx, playerPath(player, "/pets/budget"))
}

func (c *Client) FeedPet(ctx context.Context, player, pet string, foods map[string]int64) (map[string]any, error) {
	return c.post(ctx, playerPath(player, "/pets/"+url.PathEscape(pet)+"/feed"), map[string]any{
		"foods": foods,
	})
}

func (c *Client) UsePetAbility(ctx context.Context, player, pet string) (map[string]any, error) {
	return c.post(ctx, playerPath(player, "/pets/"+url.PathEscape(pet)+"/ability"), nil)
}

func (c *Client) Farm(ctx context.Context, player string) (map[string]any, error) {
	return c.get(ctx, playerPath(player, "/farm"))
}

func (c *Client) BuyPlot(ctx context.Context, player string, plot int32) (map[string]any, error) {
	return c.post(ctx, playerPath(player, "/farm/plots/buy"), map[string]any{"plot": plot})
}

func (c *Client) Plant(ctx context.Context, player string, plot int32, crop string) (map[string]any, error) {
	return c.post(ctx, playerPath(player, fmt.Sprintf("/farm/plots/%d/plant", plot)), map[string]any{
		"crop": crop,
	})
}

func (c *Client) HarvestAll(ctx context.Context, player string) (map[string]any, error) {
	return c.post(ctx, playerPath(player, "/farm/harvest"), nil)
}

func (c *Client) CurrentDive(ctx context.Context, player string) (map[string]any, error) {
	return c.get(ctx, playerPath(player, "/dive"))
}

func (c *Client) StartDive(ctx context.Context, player string) (map[string]any, error) {
	return c.post(ctx, playerPath(player, "/dive/start"), nil)
}

func (c *Client) DiveDeeper(ctx context.Context, player string) (map[string]any, error) {
	return c.post(ctx, playerPath(player, "/dive/deeper"), nil)
}

func (c *Client) Surface(ctx context.Context, player string) (map[string]any, error) {
	return c.post(ctx, playerPath(player, "/dive/surface"), nil)
}

func (c *Client) Cooldown(ctx context.Context, player, action string) (map[string]any, error) {
	return c.get(ctx, playerPath(player, "/cooldowns/"+url.PathEscape(action)))
}

func (c *Client) ItemCount(ctx context.Context, player, item string) (map[string]any, error) {
	return c.get(ctx, playerPath(player, "/items/"+url.PathEscape(item)))
}

func playerPath(player, suffix string) string {
	return "/v1/players/" + url.PathEscape(player) + suffix
}

func (c *Client) get(ctx context.Context, path string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) post(ctx context.Context, path string, body map[string]any) (map[string]any, error) {
	if body == nil {
		body = map[string]any{}
	}
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, path, body, &out)
	return out, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
