package provider

// Catalog is the build-time descriptor set for every provider the platform
// knows about. Adapter implementations exist for the payment, shipping, sms
// and whatsapp categories; the remaining categories are catalog-only and
// drive admin credential forms.
//
// Order within a category is the dispatcher's fixed priority order.
var Catalog = []Descriptor{
	{
		Key:         "razorpay",
		Category:    CategoryPayment,
		DisplayName: "Razorpay",
		CredentialSchema: []CredentialField{
			{Key: "keyId", Type: "string", Required: true, Rule: "min=8"},
			{Key: "keySecret", Type: "string", Required: true, Secret: true, Rule: "min=8"},
			{Key: "webhookSecret", Type: "string", Required: false, Secret: true},
		},
		TestAction: TestAction{Type: "payment.fetch_status", Inputs: []CredentialField{
			{Key: "paymentId", Type: "string", Required: true},
		}},
	},
	{
		Key:         "stripe",
		Category:    CategoryPayment,
		DisplayName: "Stripe",
		CredentialSchema: []CredentialField{
			{Key: "publishableKey", Type: "string", Required: true, Rule: "startswith=pk_"},
			{Key: "secretKey", Type: "string", Required: true, Secret: true, Rule: "startswith=sk_"},
			{Key: "webhookSecret", Type: "string", Required: false, Secret: true, Rule: "startswith=whsec_"},
		},
		TestAction: TestAction{Type: "payment.fetch_status", Inputs: []CredentialField{
			{Key: "paymentId", Type: "string", Required: true},
		}},
	},
	{
		Key:         "cashfree",
		Category:    CategoryPayment,
		DisplayName: "Cashfree",
		CredentialSchema: []CredentialField{
			{Key: "appId", Type: "string", Required: true},
			{Key: "secretKey", Type: "string", Required: true, Secret: true},
			{Key: "webhookSecret", Type: "string", Required: false, Secret: true},
		},
		TestAction: TestAction{Type: "payment.fetch_status", Inputs: []CredentialField{
			{Key: "paymentId", Type: "string", Required: true},
		}},
	},
	{
		Key:         "phonepe",
		Category:    CategoryPayment,
		DisplayName: "PhonePe",
		CredentialSchema: []CredentialField{
			{Key: "merchantId", Type: "string", Required: true},
			{Key: "saltKey", Type: "string", Required: true, Secret: true},
			{Key: "saltIndex", Type: "string", Required: true},
		},
		TestAction: TestAction{Type: "payment.fetch_status", Inputs: []CredentialField{
			{Key: "paymentId", Type: "string", Required: true},
		}},
	},
	{
		Key:         "payu",
		Category:    CategoryPayment,
		DisplayName: "PayU",
		CredentialSchema: []CredentialField{
			{Key: "merchantKey", Type: "string", Required: true},
			{Key: "merchantSalt", Type: "string", Required: true, Secret: true},
		},
		TestAction: TestAction{Type: "payment.fetch_status", Inputs: []CredentialField{
			{Key: "paymentId", Type: "string", Required: true},
		}},
	},
	{
		Key:         "shiprocket",
		Category:    CategoryShipping,
		DisplayName: "Shiprocket",
		CredentialSchema: []CredentialField{
			{Key: "email", Type: "email", Required: true},
			{Key: "password", Type: "string", Required: true, Secret: true},
			{Key: "pickupLocation", Type: "string", Required: false},
		},
		TestAction: TestAction{Type: "shipping.serviceability", Inputs: []CredentialField{
			{Key: "pickupPostcode", Type: "string", Required: true},
			{Key: "deliveryPostcode", Type: "string", Required: true},
		}},
	},
	{
		Key:         "smtp",
		Category:    CategoryEmail,
		DisplayName: "SMTP",
		CredentialSchema: []CredentialField{
			{Key: "host", Type: "string", Required: true},
			{Key: "port", Type: "string", Required: true},
			{Key: "username", Type: "string", Required: true},
			{Key: "password", Type: "string", Required: true, Secret: true},
			{Key: "fromAddress", Type: "email", Required: true},
		},
		TestAction: TestAction{Type: "email.send_test", Inputs: []CredentialField{
			{Key: "to", Type: "email", Required: true},
		}},
	},
	{
		Key:         "sendgrid",
		Category:    CategoryEmail,
		DisplayName: "SendGrid",
		CredentialSchema: []CredentialField{
			{Key: "apiKey", Type: "string", Required: true, Secret: true, Rule: "startswith=SG."},
			{Key: "fromAddress", Type: "email", Required: true},
		},
		TestAction: TestAction{Type: "email.send_test", Inputs: []CredentialField{
			{Key: "to", Type: "email", Required: true},
		}},
	},
	{
		Key:         "mailgun",
		Category:    CategoryEmail,
		DisplayName: "Mailgun",
		CredentialSchema: []CredentialField{
			{Key: "domain", Type: "string", Required: true},
			{Key: "apiKey", Type: "string", Required: true, Secret: true},
			{Key: "fromAddress", Type: "email", Required: true},
		},
		TestAction: TestAction{Type: "email.send_test", Inputs: []CredentialField{
			{Key: "to", Type: "email", Required: true},
		}},
	},
	{
		Key:         "msg91",
		Category:    CategorySMS,
		DisplayName: "MSG91",
		CredentialSchema: []CredentialField{
			{Key: "authKey", Type: "string", Required: true, Secret: true},
			{Key: "senderId", Type: "string", Required: true, Rule: "len=6"},
			{Key: "route", Type: "string", Required: false},
		},
		TestAction: TestAction{Type: "sms.send_test", Inputs: []CredentialField{
			{Key: "to", Type: "string", Required: true},
		}},
	},
	{
		Key:         "twofactor",
		Category:    CategorySMS,
		DisplayName: "2Factor",
		CredentialSchema: []CredentialField{
			{Key: "apiKey", Type: "string", Required: true, Secret: true},
			{Key: "senderId", Type: "string", Required: false},
		},
		TestAction: TestAction{Type: "sms.send_test", Inputs: []CredentialField{
			{Key: "to", Type: "string", Required: true},
		}},
	},
	{
		Key:         "metawa",
		Category:    CategoryWhatsApp,
		DisplayName: "WhatsApp Cloud API",
		CredentialSchema: []CredentialField{
			{Key: "phoneNumberId", Type: "string", Required: true},
			{Key: "accessToken", Type: "string", Required: true, Secret: true},
			{Key: "businessAccountId", Type: "string", Required: false},
		},
		TestAction: TestAction{Type: "whatsapp.send_test", Inputs: []CredentialField{
			{Key: "to", Type: "string", Required: true},
		}},
	},
	{
		Key:         "gupshup",
		Category:    CategoryWhatsApp,
		DisplayName: "Gupshup",
		CredentialSchema: []CredentialField{
			{Key: "apiKey", Type: "string", Required: true, Secret: true},
			{Key: "appName", Type: "string", Required: true},
			{Key: "source", Type: "string", Required: true},
		},
		TestAction: TestAction{Type: "whatsapp.send_test", Inputs: []CredentialField{
			{Key: "to", Type: "string", Required: true},
		}},
	},
	{
		Key:         "interakt",
		Category:    CategoryWhatsApp,
		DisplayName: "Interakt",
		CredentialSchema: []CredentialField{
			{Key: "apiKey", Type: "string", Required: true, Secret: true},
		},
		TestAction: TestAction{Type: "whatsapp.send_test", Inputs: []CredentialField{
			{Key: "to", Type: "string", Required: true},
		}},
	},
	{
		Key:         "fcm",
		Category:    CategoryPush,
		DisplayName: "Firebase Cloud Messaging",
		CredentialSchema: []CredentialField{
			{Key: "projectId", Type: "string", Required: true},
			{Key: "serviceAccountJson", Type: "json", Required: true, Secret: true},
		},
		TestAction: TestAction{Type: "push.send_test", Inputs: []CredentialField{
			{Key: "deviceToken", Type: "string", Required: true},
		}},
	},
	{
		Key:         "google",
		Category:    CategoryAuth,
		DisplayName: "Google Sign-In",
		CredentialSchema: []CredentialField{
			{Key: "clientId", Type: "string", Required: true},
			{Key: "clientSecret", Type: "string", Required: true, Secret: true},
			{Key: "redirectUrl", Type: "url", Required: true},
		},
		TestAction: TestAction{Type: "auth.exchange_test"},
	},
	{
		Key:         "s3",
		Category:    CategoryStorage,
		DisplayName: "Amazon S3",
		CredentialSchema: []CredentialField{
			{Key: "accessKeyId", Type: "string", Required: true},
			{Key: "secretAccessKey", Type: "string", Required: true, Secret: true},
			{Key: "region", Type: "string", Required: true},
			{Key: "bucket", Type: "string", Required: true},
		},
		TestAction: TestAction{Type: "storage.head_bucket"},
	},
}
