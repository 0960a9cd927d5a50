// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"github.com/taibuivan/gatekeeper/internal/identity"
	"github.com/taibuivan/gatekeeper/internal/platform/apperr"
)

// Flow names the user-facing operation a provider error belongs to.
type Flow string

const (
	FlowSignIn             Flow = "Sign-in"
	FlowSignUp             Flow = "Sign-up"
	FlowAnonymous          Flow = "Anonymous sign-in"
	FlowPasswordReset      Flow = "Sending the reset email"
	FlowResendVerification Flow = "Resending the verification email"
	FlowSignOut            Flow = "Sign-out"
)

const (
	msgInvalidEmail    = "The email address is not valid. Please check it and try again."
	msgNetworkFailed   = "Network connection failed. Please check your connection and try again."
	msgTooManyRequests = "Too many requests. Please try again later."
)

// friendlyMessages maps provider codes to the text shown for each flow.
var friendlyMessages = map[Flow]map[string]string{
	FlowSignIn: {
		identity.CodeUserNotFound:         "This email is not registered yet. Please sign up first.",
		identity.CodeWrongPassword:        "Incorrect password. Please check it and try again.",
		identity.CodeInvalidCredential:    "Incorrect email or password. If you just signed up, verify your email before signing in.",
		identity.CodeInvalidEmail:         msgInvalidEmail,
		identity.CodeUserDisabled:         "This account has been disabled. Please contact an administrator.",
		identity.CodeTooManyRequests:      "Too many sign-in attempts. Please try again later.",
		identity.CodeNetworkRequestFailed: msgNetworkFailed,
	},
	FlowSignUp: {
		identity.CodeEmailAlreadyInUse:    "This email is already registered. Use another email or sign in instead.",
		identity.CodeWeakPassword:         "The password is too weak. Use at least 6 characters.",
		identity.CodeInvalidEmail:         msgInvalidEmail,
		identity.CodeOperationNotAllowed:  "Email sign-up is temporarily unavailable.",
		identity.CodeNetworkRequestFailed: msgNetworkFailed,
	},
	FlowAnonymous: {
		identity.CodeOperationNotAllowed: "Anonymous sign-in is not enabled. Please contact an administrator.",
		identity.CodeTooManyRequests:     msgTooManyRequests,
	},
	FlowPasswordReset: {
		identity.CodeUserNotFound:    "This email is not registered. Please check the address.",
		identity.CodeInvalidEmail:    msgInvalidEmail,
		identity.CodeTooManyRequests: msgTooManyRequests,
	},
	FlowResendVerification: {
		identity.CodeTooManyRequests: msgTooManyRequests,
		identity.CodeUserNotFound:    "This user does not exist.",
		identity.CodeWrongPassword:   "Incorrect password.",
	},
}

// FriendlyMessage returns the text for code in flow, or "<flow> failed: <raw>".
func FriendlyMessage(flow Flow, code, raw string) string {
	if message, ok := friendlyMessages[flow][code]; ok {
		return message
	}
	return string(flow) + " failed: " + raw
}

/*
translate converts a provider failure into an [apperr.AppError].

Network failures keep their own taxonomy entry; every other provider code
becomes PROVIDER_ERROR with the friendly message of the flow.
*/
func translate(flow Flow, err error) error {
	providerError, ok := identity.AsProviderError(err)
	if !ok {
		return apperr.Provider("", FriendlyMessage(flow, "", err.Error()), err)
	}

	message := FriendlyMessage(flow, providerError.Code, providerError.Error())
	if providerError.Code == identity.CodeNetworkRequestFailed {
		appError := apperr.Network(message, err)
		appError.ProviderCode = providerError.Code
		return appError
	}
	return apperr.Provider(providerError.Code, message, err)
}
