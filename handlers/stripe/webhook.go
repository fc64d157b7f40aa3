package stripe

import (
	"encoding/json"
	"io"
	"net/http"

	"courses-backend/db"
	"courses-backend/models"
	"courses-backend/utils"

	"github.com/gin-gonic/gin"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const maxBodyBytes = int64(65536)

// @Summary Stripe webhook
// @Description Receives Stripe events. A completed checkout session records the payment once per session.
// @Tags payments
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "message"
// @Failure 400 {object} map[string]string "error: Invalid signature"
// @Router /stripe/webhook [post]
func (h *Handler) StripeWebhookHandler(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Impossible de lire le corps de la requête"})
		return
	}

	if h.cfg.WebhookSecret == "" {
		utils.LogError(nil, "STRIPE_WEBHOOK_SECRET non configuré")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook secret non configuré"})
		return
	}

	sig := c.GetHeader("Stripe-Signature")
	event, err := webhook.ConstructEventWithOptions(payload, sig, h.cfg.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		utils.LogError(err, "Vérification de la signature Stripe échouée")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vérification de la signature Stripe échouée"})
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		h.handleCheckoutSessionCompleted(c, event)
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Événement ignoré"})
	}
}

func (h *Handler) handleCheckoutSessionCompleted(c *gin.Context, event stripe.Event) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Erreur parsing CheckoutSession"})
		return
	}

	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		c.JSON(http.StatusOK, gin.H{"message": "Session non payée, ignorée"})
		return
	}

	userID := session.ClientReferenceID
	courseID := session.Metadata["product_id"]
	if userID == "" || courseID == "" || session.AmountTotal <= 0 {
		utils.LogError(nil, "Session Stripe incomplète: "+session.ID)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session incomplète"})
		return
	}

	var existing int64
	if err := db.DB.Model(&models.Payment{}).Where("stripe_session_id = ?", session.ID).Count(&existing).Error; err != nil {
		utils.LogErrorWithUser(userID, err, "Erreur lors de la vérification du paiement Stripe")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}
	if existing > 0 {
		c.JSON(http.StatusOK, gin.H{"message": "Paiement déjà enregistré"})
		return
	}

	// the course may have been deleted since checkout, the money is still recorded
	var courses int64
	if err := db.DB.Model(&models.Course{}).Where("id = ?", courseID).Count(&courses).Error; err != nil {
		utils.LogErrorWithUser(userID, err, "Erreur lors de la vérification du cours payé")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}
	var paidCourse *string
	if courses > 0 {
		paidCourse = &courseID
	} else {
		utils.LogWarn("Cours " + courseID + " introuvable, paiement Stripe " + session.ID + " enregistré sans cours")
	}

	sessionID := session.ID
	payment := models.Payment{
		UserID:          &userID,
		OwnerID:         &userID,
		CourseID:        paidCourse,
		Amount:          session.AmountTotal,
		Method:          models.PaymentTransfer,
		Date:            h.now(),
		StripeSessionID: &sessionID,
	}
	if err := db.DB.Create(&payment).Error; err != nil {
		utils.LogErrorWithUser(userID, err, "Erreur lors de l'enregistrement du paiement Stripe")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	utils.LogSuccessWithUser(userID, "Paiement Stripe enregistré pour le cours "+courseID)
	c.JSON(http.StatusOK, gin.H{"message": "Paiement enregistré"})
}
