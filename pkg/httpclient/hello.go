package httpclient

import "context"

// Hello はGET /api/helloのレスポンス。
type Hello struct {
	Message string `json:"message"`
	// PublicRoutes は認証不要なAPIパスの接頭辞一覧。
	PublicRoutes []string `json:"public_routes"`
}

// Hello はGET /api/helloを呼び出す。サーバーの疎通確認に使用する。
func (c *Client) Hello(ctx context.Context) (*Hello, error) {
	var h Hello
	if err := c.GetJSON(ctx, "/api/hello", &h); err != nil {
		return nil, err
	}
	return &h, nil
}
