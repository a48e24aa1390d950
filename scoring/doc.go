// Package scoring 关键词画像匹配打分。
//
// 包内都是纯计算，不访问任何存储，画像由调用方读好传入。
// Canonicalize 把文档里的关键词规整为 KeywordRecord，Cosine 比较两个向量，
// Scorer 做阈值贪心匹配、加权汇总和对数偏移，得到 [0,100] 的分数。
package scoring
