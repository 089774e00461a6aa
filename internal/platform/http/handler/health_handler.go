// Package handler はフィーチャーに属さない共通エンドポイントのHTTPハンドラーを提供します。
package handler

import "github.com/gin-gonic/gin"

// Health は /healthz エンドポイントを処理します。デスクトップシェルと
// 監視スクリプトがAPIプロセスの生存確認に使うため、認証なしで応答し、
// 中間キャッシュに結果が残らないようにします。
func Health(c *gin.Context) {
	// 明示的にキャッシュを防止
	c.Header("Cache-Control", "no-store")

	switch c.Request.Method {
	case "HEAD":
		c.Status(200)
	case "OPTIONS":
		c.Status(204)
	default:
		c.JSON(200, gin.H{"status": "ok"})
	}
}
