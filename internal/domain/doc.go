// Package domain provides the record types shared by every shelfswap package.
//
// This package contains type definitions only. All other internal packages
// import domain; domain imports nothing internal.
//
// Key design constraints:
//   - Denormalized fields (Book.OwnerName, Message.SenderName, Message.BookTitle)
//     are copied at write time and never refreshed
//   - All JSON tags use camelCase, matching the persisted snapshot layout
//   - Optional fields (Book.Genre, Book.Cover) are empty strings when absent
package domain
