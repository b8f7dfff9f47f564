package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// BuyerMobileHeader identifies the buyer on routes without a :mobile parameter.
	BuyerMobileHeader = "X-User-Mobile"

	BuyerMobileKey = "buyer_mobile"
)

var mobilePattern = regexp.MustCompile(`^[0-9]{10}$`)

// BuyerIdentity resolves the acting buyer from the :mobile path parameter,
// falling back to X-User-Mobile. Session handling happens upstream; this only
// checks the number is well formed.
func BuyerIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		mobile := strings.TrimSpace(c.Param("mobile"))
		if mobile == "" {
			mobile = strings.TrimSpace(c.GetHeader(BuyerMobileHeader))
		}

		if !mobilePattern.MatchString(mobile) {
			body := gin.H{
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "a 10 digit buyer mobile number is required",
				},
			}
			if id := GetCorrelationID(c); id != "" {
				body["correlation_id"] = id
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, body)
			return
		}

		c.Set(BuyerMobileKey, mobile)
		c.Next()
	}
}

// GetBuyerMobile returns the mobile resolved by BuyerIdentity.
func GetBuyerMobile(c *gin.Context) string {
	return c.GetString(BuyerMobileKey)
}
