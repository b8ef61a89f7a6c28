package handlers

import (
	"context"

	"github.com/chatapp-labs/chatapp-backend/internal/metrics"
	"github.com/chatapp-labs/chatapp-backend/internal/models"
	"github.com/chatapp-labs/chatapp-backend/internal/protocol"
	"github.com/chatapp-labs/chatapp-backend/internal/store"
	"github.com/chatapp-labs/chatapp-backend/pkg/utils"
)

// signUp creates a fresh account. The reply always goes back to the sender;
// duplicate phone numbers fail without leaking which step went wrong.
func (r *Router) signUp(ctx context.Context, c Client, p protocol.SignUpRequest) {
	if p.PhoneNumber == 0 {
		r.log.Warn().Msg("sign_up without phone number")
		return
	}

	hashed, err := utils.HashPassword(p.Password)
	if err != nil {
		r.log.Error().Err(err).Msg("failed to hash password")
		r.send(c, protocol.SignUpReply{Type: "sign_up", Status: false, Message: "Failed to Create Account, try again"})
		return
	}

	acc := &models.Account{
		PhoneNumber:    p.PhoneNumber,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		ImageURL:       "",
		Status:         false,
		HashedPassword: hashed,
		SecretQuestion: p.SecretQuestion,
		SecretAnswer:   p.SecretAnswer,
		Contacts:       []models.ContactRef{},
		Groups:         []models.GroupRef{},
	}

	if err := r.store.InsertAccount(ctx, acc); err != nil {
		if err != store.ErrDuplicateAccount {
			metrics.StoreErrors.Inc()
		}
		r.log.Warn().Err(err).Int64("phone", p.PhoneNumber).Msg("sign_up failed")
		r.send(c, protocol.SignUpReply{Type: "sign_up", Status: false, Message: "Failed to Create Account, try again"})
		return
	}

	r.log.Info().Int64("phone", p.PhoneNumber).Msg("account created")
	r.send(c, protocol.SignUpReply{Type: "sign_up", Status: true, Message: "Account Created Successfully"})
}

// login authenticates the socket. On success the identity is attached to the
// session, the registry gains the connection, and online contacts are told.
func (r *Router) login(ctx context.Context, c Client, p protocol.LoginPayload) {
	if p.PhoneNumber == 0 {
		return
	}

	acc, err := r.store.FindAccount(ctx, p.PhoneNumber)
	if err != nil {
		if err != store.ErrNotFound {
			metrics.StoreErrors.Inc()
			r.log.Error().Err(err).Int64("phone", p.PhoneNumber).Msg("login lookup failed")
		}
		r.send(c, protocol.LoginReply{
			Type:    "login_request",
			Status:  false,
			Message: "Account Doesn't exist in our Database, verify and try again",
		})
		return
	}

	ok, err := utils.VerifyPassword(p.Password, acc.HashedPassword)
	if err != nil || !ok {
		r.send(c, protocol.LoginReply{
			Type:    "login_request",
			Status:  false,
			Message: "Password Incorrect",
		})
		return
	}

	c.Authenticate(p.PhoneNumber)
	r.reg.Insert(p.PhoneNumber, c, p.TimeZone)
	r.log.Info().Int64("phone", p.PhoneNumber).Msg("client connected")

	if err := r.store.SetStatus(ctx, p.PhoneNumber, true); err != nil {
		metrics.StoreErrors.Inc()
		r.log.Error().Err(err).Int64("phone", p.PhoneNumber).Msg("failed to mark account online")
	}
	acc.Status = true

	contacts, err := r.store.FetchContactsAndChats(ctx, p.PhoneNumber)
	if err != nil {
		metrics.StoreErrors.Inc()
		r.log.Error().Err(err).Int64("phone", p.PhoneNumber).Msg("failed to fetch contacts")
	}

	groups, err := r.store.FetchGroupsAndChats(ctx, p.PhoneNumber)
	if err != nil {
		metrics.StoreErrors.Inc()
		r.log.Error().Err(err).Int64("phone", p.PhoneNumber).Msg("failed to fetch groups")
	}

	r.send(c, protocol.LoginReply{
		Type:     "login_request",
		Status:   true,
		Message:  "loading your data...",
		MyInfo:   acc,
		Contacts: contacts,
		Groups:   groups,
	})

	r.fanOutToContacts(ctx, p.PhoneNumber, protocol.PresenceEvent{
		Type:        "client_connected",
		PhoneNumber: p.PhoneNumber,
	})
}

// retrieveQuestion serves the password-recovery challenge. The flow is
// unauthenticated; knowledge of the secret answer gates update_password on the
// client side.
func (r *Router) retrieveQuestion(ctx context.Context, c Client, p protocol.RetrieveQuestionRequest) {
	acc, err := r.store.FindAccount(ctx, p.PhoneNumber)
	if err != nil {
		if err != store.ErrNotFound {
			metrics.StoreErrors.Inc()
		}
		r.log.Warn().Err(err).Int64("phone", p.PhoneNumber).Msg("retrieve_question for unknown account")
		return
	}

	r.send(c, protocol.QuestionAnswer{
		Type:           "question_answer",
		SecretQuestion: acc.SecretQuestion,
		SecretAnswer:   acc.SecretAnswer,
	})
}

// updatePassword rehashes and stores a new password for the given phone.
func (r *Router) updatePassword(ctx context.Context, _ Client, p protocol.UpdatePasswordPayload) {
	hashed, err := utils.HashPassword(p.Password)
	if err != nil {
		r.log.Error().Err(err).Msg("failed to hash password")
		return
	}

	if err := r.store.SetPassword(ctx, p.PhoneNumber, hashed); err != nil {
		metrics.StoreErrors.Inc()
		r.log.Error().Err(err).Int64("phone", p.PhoneNumber).Msg("failed to update password")
	}
}

// updateInfo rewrites the sender's name and password, then tells online
// contacts about the new name.
func (r *Router) updateInfo(ctx context.Context, c Client, p protocol.UpdateInfoPayload) {
	phone := c.Phone()

	hashed, err := utils.HashPassword(p.Password)
	if err != nil {
		r.log.Error().Err(err).Msg("failed to hash password")
		return
	}

	if err := r.store.UpdateInfo(ctx, phone, p.FirstName, p.LastName, hashed); err != nil {
		metrics.StoreErrors.Inc()
		r.log.Error().Err(err).Int64("phone", phone).Msg("failed to update account info")
		return
	}

	r.fanOutToContacts(ctx, phone, protocol.ContactInfoUpdated{
		Type:        "contact_info_updated",
		PhoneNumber: phone,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
	})
}

// deleteAccount runs the cascade for the sender and drops its presence. No
// reply is sent; the client tears the socket down on its side.
func (r *Router) deleteAccount(ctx context.Context, c Client) {
	phone := c.Phone()

	if err := r.store.DeleteAccount(ctx, phone); err != nil {
		metrics.StoreErrors.Inc()
		r.log.Error().Err(err).Int64("phone", phone).Msg("failed to delete account")
		return
	}

	r.reg.Remove(phone, c)
	r.log.Info().Int64("phone", phone).Msg("account deleted")
}
