package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wrenlab/folio-backend/api/common"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter 基于客户端 IP 的限流器
type IPRateLimiter struct {
	rps      float64       // 每秒请求数
	burst    int           // 令牌桶的容量
	ttl      time.Duration // 空闲条目过期时间
	visitors *sync.Map
	stopChan chan struct{}
}

// NewIPRateLimiter 创建 IP 限流器并启动后台清理
func NewIPRateLimiter(rps float64, burst int, ttl time.Duration) *IPRateLimiter {
	limiter := &IPRateLimiter{
		rps:      rps,
		burst:    burst,
		ttl:      ttl,
		visitors: &sync.Map{},
		stopChan: make(chan struct{}),
	}

	go limiter.cleanupLoop()

	return limiter
}

// Middleware Return a Gin middleware handler
func (rl *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := clientIP(c)

		val, _ := rl.visitors.LoadOrStore(ip, &visitor{
			limiter:  rate.NewLimiter(rate.Limit(rl.rps), rl.burst),
			lastSeen: time.Now(),
		})

		v := val.(*visitor)
		v.lastSeen = time.Now()

		if !v.limiter.Allow() {
			common.RespondError(c, http.StatusTooManyRequests, "Too many requests")
			c.Abort()
			return
		}

		c.Next()
	}
}

// Stop 停止后台清理 goroutine
func (rl *IPRateLimiter) Stop() {
	close(rl.stopChan)
}

func (rl *IPRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.visitors.Range(func(key, value interface{}) bool {
				v := value.(*visitor)
				if time.Since(v.lastSeen) > rl.ttl {
					rl.visitors.Delete(key)
				}
				return true
			})
		case <-rl.stopChan:
			return
		}
	}
}

// clientIP Get the client's real IP address
func clientIP(c *gin.Context) string {
	if ip := c.GetHeader("X-Forwarded-For"); ip != "" {
		parts := strings.Split(ip, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if ip := c.GetHeader("X-Real-IP"); ip != "" {
		return ip
	}
	return c.ClientIP()
}
