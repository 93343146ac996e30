// 版权所有 2025 Autonomous Marketing Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 retry 提供生成管线的弹性执行器：指数退避 + 随机抖动 + 可重试错误
子串过滤。

每个上游后端调用都经过 Executor 包裹。操作以当前尝试序号（1-based）为
参数；错误文本与 Policy.RetryableMatch 做不区分大小写的子串匹配，命中
则按 delay = min(initial × multiplier^(n-1) × (1+jitter), max) 退避后
重试，jitter ∈ [0, 0.3)。不命中或次数耗尽时返回最后一次错误。
*/
package retry
