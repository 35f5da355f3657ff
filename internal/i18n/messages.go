package i18n

var messages = map[string]map[string]string{
	LocaleFR: {
		"error.bad_request":                  "Requête invalide",
		"error.not_found":                    "Ressource introuvable",
		"error.too_many_requests":            "Trop de requêtes, veuillez réessayer plus tard",
		"error.rate_limited":                 "Trop de requêtes, veuillez réessayer dans %d secondes",
		"error.internal":                     "Erreur interne du serveur",
		"error.product_not_found":            "Produit introuvable",
		"error.product_fetch_failed":         "Impossible de charger les produits",
		"error.product_out_of_stock":         "Ce produit est actuellement en rupture de stock",
		"error.quantity_invalid":             "La quantité doit être d'au moins 1",
		"error.date_invalid":                 "Date invalide",
		"error.time_invalid":                 "Heure invalide",
		"error.option_invalid":               "Option de produit invalide",
		"error.rental_period_rejected":       "Période de location refusée",
		"error.cart_token_required":          "Panier introuvable",
		"error.cart_empty":                   "Votre panier est vide",
		"error.cart_item_locked":             "Ce produit est déjà dans votre panier",
		"error.cart_item_not_found":          "Article introuvable dans le panier",
		"error.cart_update_failed":           "Impossible de mettre à jour le panier",
		"error.delivery_option_invalid":      "Mode de livraison invalide",
		"error.delivery_address_required":    "Adresse de livraison requise",
		"error.delivery_no_eligible_items":   "Aucun article de votre panier n'est livrable",
		"error.address_unresolvable":         "Adresse introuvable",
		"error.routing_not_configured":       "Le calcul de livraison est indisponible",
		"error.delivery_estimate_failed":     "Impossible d'estimer les frais de livraison",
		"error.reservation_data_invalid":     "Informations de réservation incomplètes",
		"error.email_invalid":                "Adresse e-mail invalide",
		"error.payment_method_invalid":       "Mode de paiement invalide",
		"error.dates_unavailable":            "Les dates sélectionnées ne sont plus disponibles",
		"error.reservation_not_found":        "Réservation introuvable",
		"error.reservation_id_invalid":       "Identifiant de réservation invalide",
		"error.reservation_create_failed":    "Impossible d'enregistrer la réservation",
		"error.reservation_fetch_failed":     "Impossible de charger la réservation",
		"error.payment_not_configured":       "Le paiement en ligne est indisponible",
		"error.payment_gateway_failed":       "Le service de paiement est indisponible",
		"error.payment_not_confirmed":        "Le paiement n'a pas été confirmé",
		"error.session_id_required":          "Session de paiement manquante",
		"error.checkout_not_found":           "Session de paiement introuvable",
		"error.checkout_failed":              "Impossible de finaliser la réservation",
		"error.checkout_draft_failed":        "Le paiement a été reçu mais la réservation n'a pas pu être confirmée. Nous allons vous contacter.",
		"error.webhook_signature_invalid":    "Signature invalide",
		"error.webhook_failed":               "Échec du traitement de la notification",
		"error.reviews_not_configured":       "Les avis sont indisponibles",
		"error.reviews_fetch_failed":         "Impossible de charger les avis",
		"error.contact_fields_required":      "Veuillez remplir tous les champs obligatoires",
		"error.contact_failed":               "Impossible d'envoyer votre message",
		"error.captcha_required":             "Veuillez compléter le captcha",
		"error.captcha_invalid":              "Captcha invalide",
		"error.captcha_unavailable":          "Captcha indisponible",
		"error.captcha_generate_failed":      "Impossible de générer le captcha",
		"availability.range_too_long":        "La période de location dépasse la durée maximale autorisée",
		"availability.range_unavailable":     "La période sélectionnée contient des dates indisponibles",
		"availability.range_no_longer_valid": "Les dates sélectionnées ne sont plus disponibles pour cette quantité. Veuillez choisir de nouvelles dates.",
	},
	LocaleEN: {
		"error.bad_request":                  "Invalid request",
		"error.not_found":                    "Resource not found",
		"error.too_many_requests":            "Too many requests, please try again later",
		"error.rate_limited":                 "Too many requests, please retry in %d seconds",
		"error.internal":                     "Internal server error",
		"error.product_not_found":            "Product not found",
		"error.product_fetch_failed":         "Failed to load products",
		"error.product_out_of_stock":         "This product is currently out of stock",
		"error.quantity_invalid":             "Quantity must be at least 1",
		"error.date_invalid":                 "Invalid date",
		"error.time_invalid":                 "Invalid time",
		"error.option_invalid":               "Invalid product option",
		"error.rental_period_rejected":       "Rental period rejected",
		"error.cart_token_required":          "Cart not found",
		"error.cart_empty":                   "Your cart is empty",
		"error.cart_item_locked":             "This product is already in your cart",
		"error.cart_item_not_found":          "Cart item not found",
		"error.cart_update_failed":           "Failed to update cart",
		"error.delivery_option_invalid":      "Invalid delivery option",
		"error.delivery_address_required":    "Delivery address required",
		"error.delivery_no_eligible_items":   "None of the items in your cart can be delivered",
		"error.address_unresolvable":         "Address not found",
		"error.routing_not_configured":       "Delivery estimation is unavailable",
		"error.delivery_estimate_failed":     "Failed to estimate delivery fees",
		"error.reservation_data_invalid":     "Reservation details are incomplete",
		"error.email_invalid":                "Invalid email address",
		"error.payment_method_invalid":       "Invalid payment method",
		"error.dates_unavailable":            "The selected dates are no longer available",
		"error.reservation_not_found":        "Reservation not found",
		"error.reservation_id_invalid":       "Invalid reservation id",
		"error.reservation_create_failed":    "Failed to save the reservation",
		"error.reservation_fetch_failed":     "Failed to load the reservation",
		"error.payment_not_configured":       "Online payment is unavailable",
		"error.payment_gateway_failed":       "Payment provider is unavailable",
		"error.payment_not_confirmed":        "Payment has not been confirmed",
		"error.session_id_required":          "Missing payment session",
		"error.checkout_not_found":           "Payment session not found",
		"error.checkout_failed":              "Failed to finalize the reservation",
		"error.checkout_draft_failed":        "Payment was received but the reservation could not be confirmed. We will contact you.",
		"error.webhook_signature_invalid":    "Invalid signature",
		"error.webhook_failed":               "Failed to process notification",
		"error.reviews_not_configured":       "Reviews are unavailable",
		"error.reviews_fetch_failed":         "Failed to load reviews",
		"error.contact_fields_required":      "Please fill in all required fields",
		"error.contact_failed":               "Failed to send your message",
		"error.captcha_required":             "Please complete the captcha",
		"error.captcha_invalid":              "Invalid captcha",
		"error.captcha_unavailable":          "Captcha unavailable",
		"error.captcha_generate_failed":      "Failed to generate captcha",
		"availability.range_too_long":        "The rental period exceeds the maximum allowed length",
		"availability.range_unavailable":     "The selected period contains unavailable dates",
		"availability.range_no_longer_valid": "The selected dates are no longer available for this quantity. Please choose new dates.",
	},
}
